// Copyright 2024 The revc Authors
// This file is part of the revc library.
//
// The revc library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The revc library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the revc library. If not, see <http://www.gnu.org/licenses/>.

package cgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/revc/revc/core/image"
	"github.com/revc/revc/core/ir"
	"github.com/revc/revc/core/ir/calling"
	"github.com/revc/revc/core/ir/cflow"
	"github.com/revc/revc/core/ir/dflow"
	"github.com/revc/revc/core/ir/liveness"
	"github.com/revc/revc/core/ir/vars"
	"github.com/revc/revc/core/likec"
	"github.com/revc/revc/log"
)

// DefinitionGenerator synthesizes the C-like definition of one
// function from its dataflow and control-flow structuring results.
type DefinitionGenerator struct {
	parent     *CodeGenerator
	function   *ir.Function
	dataflow   *dflow.Dataflow
	graph      *cflow.Region
	liveness   liveness.Liveness
	signature  *calling.Signature
	dominators *ir.Dominators

	definition *likec.FunctionDefinition

	variableDeclarations map[*vars.Variable]*likec.VariableDeclaration
	labels               map[*ir.BasicBlock]*likec.LabelDeclaration

	singleAssignment map[*vars.Variable]bool
	intermediate     map[*vars.Variable]bool
}

// NewDefinitionGenerator creates a generator for one function. graph
// is the root region of the function's structuring tree.
func NewDefinitionGenerator(
	parent *CodeGenerator,
	function *ir.Function,
	dataflow *dflow.Dataflow,
	graph *cflow.Region,
	livenessOracle liveness.Liveness,
) *DefinitionGenerator {
	return &DefinitionGenerator{
		parent:               parent,
		function:             function,
		dataflow:             dataflow,
		graph:                graph,
		liveness:             livenessOracle,
		variableDeclarations: make(map[*vars.Variable]*likec.VariableDeclaration),
		labels:               make(map[*ir.BasicBlock]*likec.LabelDeclaration),
		singleAssignment:     make(map[*vars.Variable]bool),
		intermediate:         make(map[*vars.Variable]bool),
	}
}

// CreateDefinition synthesizes the function definition. The context
// cancels the dominator construction.
func (g *DefinitionGenerator) CreateDefinition(ctx context.Context) (*likec.FunctionDefinition, error) {
	sig := g.parent.signatures.GetFunctionSignature(g.function)
	if sig == nil {
		return nil, fmt.Errorf("no signature reconstructed for function %q", g.function.Name())
	}
	g.signature = sig

	dominators, err := ir.NewDominators(ctx, ir.NewCFG(g.function.BasicBlocks()), g.function.Entry())
	if err != nil {
		return nil, fmt.Errorf("computing dominators of %q: %w", g.function.Name(), err)
	}
	g.dominators = dominators

	g.definition = likec.NewFunctionDefinition(sig.Name(), g.makeReturnType(), sig.Variadic())
	g.definition.Comment = sig.Comment()

	if g.parent.hooks != nil {
		if entryHook := g.parent.hooks.GetEntryHook(g.function); entryHook != nil {
			g.makeArguments(entryHook)
		}
	}

	g.makeStatements(g.graph, g.definition.Block(), nil, nil, nil, NewSwitchContext())

	return g.definition, nil
}

// makeArguments declares the signature's arguments. An argument whose
// term occupies exactly its variable's location becomes the variable's
// declaration; otherwise a copy-in assignment is emitted.
func (g *DefinitionGenerator) makeArguments(entryHook calling.EntryHook) {
	for _, argument := range g.signature.Arguments() {
		term := entryHook.GetArgumentTerm(argument)
		if term == nil {
			log.Warn("Entry hook has no clone of a signature argument", "function", g.function.Name())
			continue
		}
		termLocation, ok := g.dataflow.GetMemoryLocation(term)
		if !ok {
			log.Warn("Argument term has no memory location", "function", g.function.Name())
			continue
		}
		variable := g.parent.variables.GetVariable(term)
		if variable == nil {
			log.Warn("Argument term belongs to no variable", "function", g.function.Name())
			continue
		}

		if variable.MemoryLocation() == termLocation {
			if g.variableDeclarations[variable] == nil {
				g.variableDeclarations[variable] = g.makeArgumentDeclaration(term)
			}
		} else {
			argumentDeclaration := g.makeArgumentDeclaration(term)
			g.definition.Block().AddStatement(likec.NewExpressionStatement(
				likec.NewBinaryOperator(likec.Assign,
					g.makeVariableAccess(term),
					likec.NewVariableIdentifier(argumentDeclaration))))
		}
	}
}

func (g *DefinitionGenerator) makeArgumentDeclaration(term ir.Term) *likec.VariableDeclaration {
	declaration := likec.NewVariableDeclaration(
		fmt.Sprintf("a%d", len(g.definition.Arguments)+1),
		g.parent.MakeType(g.parent.types.GetType(term)))
	g.definition.AddArgument(declaration)
	return declaration
}

func (g *DefinitionGenerator) makeReturnType() likec.Type {
	if ret := g.signature.ReturnValue(); ret != nil {
		return g.parent.MakeType(g.parent.types.GetType(ret))
	}
	return likec.VoidType{}
}

func (g *DefinitionGenerator) makeLocalVariableDeclaration(variable *vars.Variable) *likec.VariableDeclaration {
	if d := g.variableDeclarations[variable]; d != nil {
		return d
	}

	name := "v"
	if g.parent.options.RegisterVariableNames {
		if register, ok := g.parent.arch.RegisterByLocation(variable.MemoryLocation()); ok {
			name = strings.ToLower(register.Name)
			if name == "" || name[len(name)-1] >= '0' && name[len(name)-1] <= '9' {
				name += "_"
			}
		}
	}
	name = fmt.Sprintf("%s%d", name, len(g.variableDeclarations))

	declaration := likec.NewVariableDeclaration(name, g.parent.MakeVariableType(variable))
	g.variableDeclarations[variable] = declaration
	g.definition.Block().AddDeclaration(declaration)
	return declaration
}

func (g *DefinitionGenerator) makeVariableDeclaration(variable *vars.Variable) *likec.VariableDeclaration {
	if variable.IsGlobal() {
		return g.parent.MakeGlobalVariableDeclarationFor(variable)
	}
	return g.makeLocalVariableDeclaration(variable)
}

func (g *DefinitionGenerator) makeLabel(bb *ir.BasicBlock) *likec.LabelDeclaration {
	if l := g.labels[bb]; l != nil {
		return l
	}
	var name string
	if addr, ok := bb.Address(); ok {
		name = fmt.Sprintf("addr_0x%x_%d", addr, len(g.labels))
	} else {
		name = fmt.Sprintf("label_%d", len(g.labels))
	}
	label := likec.NewLabelDeclaration(name)
	g.labels[bb] = label
	g.definition.AddLabel(label)
	return label
}

// addLabels emits the block's label, plus its case or default labels
// when it is a switch target. Emitted case values are consumed.
func (g *DefinitionGenerator) addLabels(bb *ir.BasicBlock, block *likec.Block, switchContext *SwitchContext) {
	block.AddStatement(likec.NewLabelStatement(g.makeLabel(bb)))

	if addr, ok := bb.Address(); ok {
		if bb == switchContext.DefaultBasicBlock() {
			block.AddStatement(likec.NewDefaultLabel())
		} else {
			for _, value := range switchContext.CaseValues(addr) {
				block.AddStatement(likec.NewCaseLabel(
					likec.NewIntegerConstantUint64(value, switchContext.ValueType())))
			}
		}
		switchContext.EraseCaseValues(addr)
	}
}

// makeStatements emits the code of one structuring-tree node into
// block. The three sentinels route fallthroughs: a jump to nextBB is
// dropped, a jump to breakBB becomes break, a jump to continueBB
// becomes continue.
func (g *DefinitionGenerator) makeStatements(node cflow.Node, block *likec.Block, nextBB, breakBB, continueBB *ir.BasicBlock, switchContext *SwitchContext) {
	switch node := node.(type) {
	case *cflow.BasicNode:
		g.addLabels(node.BasicBlock(), block, switchContext)
		for _, stmt := range node.BasicBlock().Statements() {
			if s := g.makeStatement(stmt, nextBB, breakBB, continueBB); s != nil {
				block.AddStatement(s)
			}
		}

	case *cflow.Switch:
		g.makeSwitch(node, block, nextBB, breakBB, continueBB, switchContext)

	case *cflow.Region:
		g.makeRegionStatements(node, block, nextBB, breakBB, continueBB, switchContext)

	default:
		log.Warn("Statement synthesis for unsupported node", "function", g.function.Name())
	}
}

func (g *DefinitionGenerator) makeRegionStatements(region *cflow.Region, block *likec.Block, nextBB, breakBB, continueBB *ir.BasicBlock, switchContext *SwitchContext) {
	nodes := region.Nodes()

	switch region.Kind() {
	case cflow.Unknown:
		// Processing nodes in DFS order is likely to minimize the
		// number of generated gotos.
		g.makeStatementsList(cflow.Preordering(region), block, nextBB, breakBB, continueBB, switchContext)

	case cflow.Block, cflow.CompoundCondition:
		g.makeStatementsList(nodes, block, nextBB, breakBB, continueBB, switchContext)

	case cflow.IfThenElse:
		if len(nodes) != 3 {
			log.Warn("If-then-else region without three children", "function", g.function.Name(), "children", len(nodes))
			g.makeStatementsList(nodes, block, nextBB, breakBB, continueBB, switchContext)
			return
		}
		condition := g.makeExpression(nodes[0], block,
			nodes[1].EntryBasicBlock(), nodes[2].EntryBasicBlock(), switchContext)

		thenBlock := likec.NewBlock()
		g.makeStatements(nodes[1], thenBlock, nextBB, breakBB, continueBB, switchContext)

		elseBlock := likec.NewBlock()
		g.makeStatements(nodes[2], elseBlock, nextBB, breakBB, continueBB, switchContext)

		block.AddStatement(likec.NewIf(condition, thenBlock, elseBlock))

	case cflow.IfThen:
		if len(nodes) != 2 || region.ExitBasicBlock() == nil {
			log.Warn("If-then region without two children and an exit", "function", g.function.Name())
			g.makeStatementsList(nodes, block, nextBB, breakBB, continueBB, switchContext)
			return
		}
		condition := g.makeExpression(nodes[0], block,
			nodes[1].EntryBasicBlock(), region.ExitBasicBlock(), switchContext)

		thenBlock := likec.NewBlock()
		g.makeStatements(nodes[1], thenBlock, nextBB, breakBB, continueBB, switchContext)

		block.AddStatement(likec.NewIf(condition, thenBlock, nil))

	case cflow.Loop:
		condition := likec.NewIntegerConstantUint64(1,
			likec.MakeIntegerType(g.parent.arch.IntSize(), false))

		body := likec.NewBlock()
		entryBB := region.Entry().EntryBasicBlock()
		g.makeStatementsList(cflow.Preordering(region), body, entryBB, nextBB, entryBB, switchContext)

		block.AddStatement(likec.NewWhile(condition, body))

	case cflow.While:
		if region.ExitBasicBlock() == nil {
			log.Warn("While region without an exit", "function", g.function.Name())
			g.makeStatementsList(nodes, block, nextBB, breakBB, continueBB, switchContext)
			return
		}
		conditionBB := region.Entry().EntryBasicBlock()
		g.addLabels(conditionBB, block, switchContext)

		ordered := cflow.Preordering(region)
		bodyNodes := make([]cflow.Node, 0, len(ordered))
		for _, n := range ordered {
			if n != region.Entry() {
				bodyNodes = append(bodyNodes, n)
			}
		}

		thenBB := conditionBB
		if len(bodyNodes) > 0 {
			thenBB = bodyNodes[0].EntryBasicBlock()
		}
		condition := g.makeExpression(region.Entry(), nil, thenBB, region.ExitBasicBlock(), switchContext)

		body := likec.NewBlock()
		g.makeStatementsList(bodyNodes, body, conditionBB, region.ExitBasicBlock(), conditionBB, switchContext)

		block.AddStatement(likec.NewWhile(condition, body))

		if jump := g.makeJump(region.ExitBasicBlock(), nextBB, breakBB, continueBB); jump != nil {
			block.AddStatement(jump)
		}

	case cflow.DoWhile:
		if region.ExitBasicBlock() == nil || region.LoopCondition() == nil {
			log.Warn("Do-while region without an exit or a condition", "function", g.function.Name())
			g.makeStatementsList(nodes, block, nextBB, breakBB, continueBB, switchContext)
			return
		}
		ordered := cflow.Preordering(region)
		bodyNodes := make([]cflow.Node, 0, len(ordered))
		for _, n := range ordered {
			if n != region.LoopCondition() {
				bodyNodes = append(bodyNodes, n)
			}
		}

		body := likec.NewBlock()
		conditionBB := region.LoopCondition().EntryBasicBlock()
		g.makeStatementsList(bodyNodes, body, conditionBB, nextBB, conditionBB, switchContext)

		condition := g.makeExpression(region.LoopCondition(), body,
			region.Entry().EntryBasicBlock(), region.ExitBasicBlock(), switchContext)

		block.AddStatement(likec.NewDoWhile(body, condition))

		if jump := g.makeJump(region.ExitBasicBlock(), nextBB, breakBB, continueBB); jump != nil {
			block.AddStatement(jump)
		}

	default:
		log.Warn("Statement synthesis for unsupported region kind", "function", g.function.Name(), "kind", region.Kind())
		g.makeStatementsList(nodes, block, nextBB, breakBB, continueBB, switchContext)
	}
}

// makeStatementsList emits a sequence of sibling nodes, with each
// node's fallthrough target being the entry of the next one.
func (g *DefinitionGenerator) makeStatementsList(nodes []cflow.Node, block *likec.Block, nextBB, breakBB, continueBB *ir.BasicBlock, switchContext *SwitchContext) {
	for i, node := range nodes {
		next := nextBB
		if i+1 < len(nodes) {
			next = nodes[i+1].EntryBasicBlock()
		}
		g.makeStatements(node, block, next, breakBB, continueBB, switchContext)
	}
}

func (g *DefinitionGenerator) makeSwitch(witch *cflow.Switch, block *likec.Block, nextBB, breakBB, continueBB *ir.BasicBlock, switchContext *SwitchContext) {
	// Generates code for a basic block, except for its terminator.
	makeStatementsButLast := func(bb *ir.BasicBlock) {
		g.addLabels(bb, block, switchContext)
		stmts := bb.Statements()
		if len(stmts) == 0 {
			return
		}
		for _, stmt := range stmts[:len(stmts)-1] {
			// We do not care about breakBB and others: we will not
			// create gotos here.
			if s := g.makeStatement(stmt, nil, nil, nil); s != nil {
				block.AddStatement(s)
			}
		}
	}

	if witch.BoundsCheckNode() != nil {
		makeStatementsButLast(witch.BoundsCheckNode().BasicBlock())
	}
	makeStatementsButLast(witch.SwitchNode().BasicBlock())

	jump := witch.SwitchNode().BasicBlock().GetJump()
	if jump == nil || !jump.IsUnconditional() || jump.ThenTarget().Table() == nil {
		log.Warn("Switch node does not end in a table jump", "function", g.function.Name())
		return
	}
	jumpTable := jump.ThenTarget().Table()

	newContext := NewSwitchContext()
	newContext.SetValueType(likec.MakeIntegerType(witch.SwitchTerm().Size(), false))
	for i := 0; i < witch.JumpTableSize() && i < len(jumpTable); i++ {
		newContext.AddCaseValue(jumpTable[i].Address, uint64(i))
	}
	if witch.DefaultBasicBlock() != nil {
		newContext.SetDefaultBasicBlock(witch.DefaultBasicBlock())
	}

	exitBB := witch.ExitBasicBlock()
	if exitBB == nil {
		exitBB = nextBB
	}

	expression := likec.NewTypecast(newContext.ValueType(), g.makeTermExpression(witch.SwitchTerm()))

	var bodyNodes []cflow.Node
	for _, n := range cflow.Preordering(&witch.Region) {
		if n == cflow.Node(witch.SwitchNode()) {
			continue
		}
		if bc := witch.BoundsCheckNode(); bc != nil && n == cflow.Node(bc) {
			continue
		}
		bodyNodes = append(bodyNodes, n)
	}

	body := likec.NewBlock()
	g.makeStatementsList(bodyNodes, body, exitBB, exitBB, continueBB, newContext)

	// Case values whose targets lie outside the switch region were not
	// consumed; emit them as case-goto pairs at the tail.
	for _, cases := range newContext.RemainingCaseValues() {
		for _, value := range cases.Values {
			body.AddStatement(likec.NewCaseLabel(
				likec.NewIntegerConstantUint64(value, newContext.ValueType())))
		}
		body.AddStatement(likec.NewGoto(likec.NewIntegerConstantUint64(cases.Addr,
			likec.MakeIntegerType(g.parent.arch.PointerSize(), true))))
	}

	block.AddStatement(likec.NewSwitch(expression, body))

	if j := g.makeJump(exitBB, nextBB, breakBB, continueBB); j != nil {
		block.AddStatement(j)
	}
}

// makeExpression turns a condition node into a boolean expression
// routed at thenBB/elseBB. Side-effecting statements met on the way
// are either emitted into block (when given) or comma-joined into the
// condition.
func (g *DefinitionGenerator) makeExpression(node cflow.Node, block *likec.Block, thenBB, elseBB *ir.BasicBlock, switchContext *SwitchContext) likec.Expression {
	switch node := node.(type) {
	case *cflow.BasicNode:
		return g.makeBasicNodeExpression(node, block, thenBB, switchContext)

	case *cflow.Region:
		if node.Kind() == cflow.CompoundCondition && len(node.Nodes()) == 2 {
			return g.makeCompoundConditionExpression(node, block, thenBB, elseBB, switchContext)
		}
	}

	log.Warn("Expression synthesis for a non-condition node", "function", g.function.Name())
	return likec.NewIntegerConstantUint64(1, likec.MakeIntegerType(1, false))
}

func (g *DefinitionGenerator) makeBasicNodeExpression(node *cflow.BasicNode, block *likec.Block, thenBB *ir.BasicBlock, switchContext *SwitchContext) likec.Expression {
	if block != nil {
		g.addLabels(node.BasicBlock(), block, switchContext)
	}

	var result likec.Expression
	for _, stmt := range node.BasicBlock().Statements() {
		var expression likec.Expression

		if jump, ok := stmt.(*ir.Jump); ok {
			expression = g.makeTermExpression(jump.Condition())
			if jump.ThenTarget().BasicBlock() != thenBB {
				expression = likec.NewUnaryOperator(likec.LogicalNot, expression)
			}
		} else if s := g.makeStatement(stmt, nil, nil, nil); s != nil {
			if block != nil {
				block.AddStatement(s)
			} else if es, ok := s.(*likec.ExpressionStatement); ok {
				expression = es.Expression
			}
		}

		if expression != nil {
			if result == nil {
				result = expression
			} else {
				result = likec.NewBinaryOperator(likec.Comma, result, expression)
			}
		}
	}

	if result == nil {
		log.Warn("Condition node yielded no expression", "function", g.function.Name())
		result = likec.NewIntegerConstantUint64(1, likec.MakeIntegerType(1, false))
	}
	return result
}

// makeCompoundConditionExpression distinguishes && from ||:
//
//	if (a || b) { then } { else }:  a -> then | b,  b -> then | else
//	if (a && b) { then } { else }:  a -> b | else,  b -> then | else
//
// The jump of the last basic node inside the first child tells which
// shape applies.
func (g *DefinitionGenerator) makeCompoundConditionExpression(region *cflow.Region, block *likec.Block, thenBB, elseBB *ir.BasicBlock, switchContext *SwitchContext) likec.Expression {
	n := region.Nodes()[0]
	for {
		r, ok := n.(*cflow.Region)
		if !ok {
			break
		}
		n = r.Nodes()[1]
	}
	basic, ok := n.(*cflow.BasicNode)
	if !ok || basic.BasicBlock().GetJump() == nil {
		log.Warn("Compound condition without a jump in its first component", "function", g.function.Name())
		return likec.NewIntegerConstantUint64(1, likec.MakeIntegerType(1, false))
	}
	jump := basic.BasicBlock().GetJump()

	switch {
	case jump.ThenTarget().BasicBlock() == thenBB || jump.ElseTarget().BasicBlock() == thenBB:
		left := g.makeExpression(region.Nodes()[0], block, thenBB, region.Nodes()[1].EntryBasicBlock(), switchContext)
		right := g.makeExpression(region.Nodes()[1], nil, thenBB, elseBB, switchContext)
		return likec.NewBinaryOperator(likec.LogicalOr, left, right)

	case jump.ThenTarget().BasicBlock() == elseBB || jump.ElseTarget().BasicBlock() == elseBB:
		left := g.makeExpression(region.Nodes()[0], block, region.Nodes()[1].EntryBasicBlock(), elseBB, switchContext)
		right := g.makeExpression(region.Nodes()[1], nil, thenBB, elseBB, switchContext)
		return likec.NewBinaryOperator(likec.LogicalAnd, left, right)

	default:
		log.Warn("First component of a compound condition targets neither branch", "function", g.function.Name())
		return likec.NewIntegerConstantUint64(1, likec.MakeIntegerType(1, false))
	}
}

// makeStatement translates one IR statement, returning nil when it
// produces no code. The result is back-annotated with its origin.
func (g *DefinitionGenerator) makeStatement(stmt ir.Statement, nextBB, breakBB, continueBB *ir.BasicBlock) likec.Statement {
	result := g.doMakeStatement(stmt, nextBB, breakBB, continueBB)
	if result != nil {
		likec.AnnotateStatement(result, stmt)
	}
	return result
}

func (g *DefinitionGenerator) doMakeStatement(stmt ir.Statement, nextBB, breakBB, continueBB *ir.BasicBlock) likec.Statement {
	switch stmt := stmt.(type) {
	case *ir.InlineAssembly:
		return likec.NewInlineAssembly(stmt.Instruction().String())

	case *ir.Comment:
		return likec.NewCommentStatement(stmt.Text())

	case *ir.Assignment:
		if !g.liveness.IsLive(stmt.Left()) {
			return nil
		}
		if variable := g.parent.variables.GetVariable(stmt.Left()); variable != nil && g.isIntermediate(variable) {
			return nil
		}
		left := g.makeTermExpression(stmt.Left())
		right := g.makeTermExpression(stmt.Right())
		return likec.NewExpressionStatement(
			likec.NewBinaryOperator(likec.Assign,
				left,
				likec.NewTypecast(g.parent.MakeType(g.parent.types.GetType(stmt.Left())), right)))

	case *ir.Kill:
		return nil

	case *ir.Jump:
		if stmt.IsConditional() {
			thenJump := g.makeJumpFromTarget(stmt.ThenTarget(), nextBB, breakBB, continueBB)
			elseJump := g.makeJumpFromTarget(stmt.ElseTarget(), nextBB, breakBB, continueBB)
			condition := g.makeTermExpression(stmt.Condition())

			if thenJump == nil {
				if elseJump == nil {
					return nil
				}
				thenJump, elseJump = elseJump, nil
				condition = likec.NewUnaryOperator(likec.LogicalNot, condition)
			}
			return likec.NewIf(condition, thenJump, elseJump)
		}
		return g.makeJumpFromTarget(stmt.ThenTarget(), nextBB, breakBB, continueBB)

	case *ir.Call:
		return g.makeCallStatement(stmt)

	case *ir.Return:
		if g.signature.ReturnValue() != nil && g.parent.hooks != nil {
			if returnHook := g.parent.hooks.GetReturnHook(stmt); returnHook != nil {
				if term := returnHook.GetReturnValueTerm(g.signature.ReturnValue()); term != nil {
					return likec.NewReturn(g.makeTermExpression(term))
				}
			}
		}
		return likec.NewReturn(nil)

	case *ir.Touch:
		return nil

	case *ir.Callback:
		stmt.Run()
		return nil

	default:
		log.Warn("Statement synthesis for unsupported statement kind", "function", g.function.Name())
		return nil
	}
}

func (g *DefinitionGenerator) makeCallStatement(call *ir.Call) likec.Statement {
	var target likec.Expression

	if av := g.dataflow.GetValue(call.Target()).AbstractValue(); av.IsConcrete() {
		if sig := g.parent.signatures.GetAddressSignature(av.AsConcreteUint64()); sig != nil {
			identifier := likec.NewFunctionIdentifier(g.parent.MakeFunctionDeclaration(sig))
			identifier.SetTerm(call.Target())
			target = identifier
		}
	}
	if target == nil {
		target = g.makeTermExpression(call.Target())
	}

	callOperator := likec.NewCallOperator(target)

	if callSignature := g.parent.signatures.GetCallSignature(call); callSignature != nil && g.parent.hooks != nil {
		if callHook := g.parent.hooks.GetCallHook(call); callHook != nil {
			for _, argument := range callSignature.Arguments() {
				if term := callHook.GetArgumentTerm(argument); term != nil {
					callOperator.AddArgument(g.makeTermExpression(term))
				} else {
					log.Warn("Call hook has no clone of a signature argument", "function", g.function.Name())
				}
			}

			if ret := callSignature.ReturnValue(); ret != nil {
				if returnValueTerm := callHook.GetReturnValueTerm(ret); returnValueTerm != nil {
					return likec.NewExpressionStatement(
						likec.NewBinaryOperator(likec.Assign,
							g.makeTermExpression(returnValueTerm),
							likec.NewTypecast(
								g.parent.MakeType(g.parent.types.GetType(returnValueTerm)),
								callOperator)))
				}
			}
		}
	}

	return likec.NewExpressionStatement(callOperator)
}

// makeJump reifies a transfer to target: nothing on natural
// fallthrough, break/continue inside the matching construct, a goto
// otherwise.
func (g *DefinitionGenerator) makeJump(target, nextBB, breakBB, continueBB *ir.BasicBlock) likec.Statement {
	if target == nil {
		return nil
	}
	switch target {
	case nextBB:
		return nil
	case breakBB:
		return likec.NewBreak()
	case continueBB:
		return likec.NewContinue()
	default:
		return likec.NewGoto(likec.NewLabelIdentifier(g.makeLabel(target)))
	}
}

func (g *DefinitionGenerator) makeJumpFromTarget(target ir.JumpTarget, nextBB, breakBB, continueBB *ir.BasicBlock) likec.Statement {
	if bb := target.BasicBlock(); bb != nil {
		return g.makeJump(bb, nextBB, breakBB, continueBB)
	}
	if addr := target.Address(); addr != nil {
		return likec.NewGoto(g.makeTermExpression(addr))
	}
	return likec.NewGoto(likec.NewStringLiteral("???"))
}

// makeTermExpression translates one IR term into an expression. The
// result is back-annotated with its origin.
func (g *DefinitionGenerator) makeTermExpression(t ir.Term) likec.Expression {
	result := g.doMakeExpression(t)
	likec.AnnotateExpression(result, t)
	return result
}

func (g *DefinitionGenerator) doMakeExpression(t ir.Term) likec.Expression {
	if g.parent.options.PreferConstantsToExpressions && t.IsRead() {
		if av := g.dataflow.GetValue(t).AbstractValue(); av.IsConcrete() {
			value := av.AsConcrete()
			return g.makeConstant(t, &value)
		}
	}

	if variable := g.parent.variables.GetVariable(t); variable != nil {
		if g.isIntermediate(variable) {
			if definition := g.getSingleDefinition(variable); definition != nil {
				if source := ir.Source(definition); source != nil {
					return g.makeTermExpression(source)
				}
			}
		}
		return g.makeVariableAccess(t)
	}

	switch t := t.(type) {
	case *ir.Constant:
		return g.makeConstant(t, t.Value())

	case *ir.Intrinsic, *ir.Undefined:
		return likec.NewCallOperator(likec.NewStringLiteral("intrinsic"))

	case *ir.MemoryLocationAccess:
		log.Warn("Memory location access without a variable", "function", g.function.Name())
		return likec.NewCallOperator(likec.NewStringLiteral("intrinsic"))

	case *ir.Dereference:
		typ := g.parent.types.GetType(t)
		addressType := g.parent.types.GetType(t.Address())
		return likec.NewUnaryOperator(likec.Dereference,
			likec.NewTypecast(
				likec.MakePointerType(addressType.Size(), g.parent.MakeType(typ)),
				g.makeTermExpression(t.Address())))

	case *ir.UnaryOperator:
		return g.makeUnaryExpression(t)

	case *ir.BinaryOperator:
		return g.makeBinaryExpression(t)

	case *ir.Choice:
		if !g.dataflow.GetDefinitions(t.PreferredTerm()).IsEmpty() {
			return g.makeTermExpression(t.PreferredTerm())
		}
		return g.makeTermExpression(t.DefaultTerm())

	default:
		log.Warn("Expression synthesis for unsupported term kind", "function", g.function.Name())
		return likec.NewCallOperator(likec.NewStringLiteral("intrinsic"))
	}
}

func (g *DefinitionGenerator) makeUnaryExpression(unary *ir.UnaryOperator) likec.Expression {
	operand := g.makeTermExpression(unary.Operand())

	switch unary.OperatorKind() {
	case ir.NOT:
		operandType := g.parent.types.GetType(unary.Operand())
		return likec.NewUnaryOperator(likec.BitwiseNot,
			likec.NewTypecast(likec.MakeIntegerType(operandType.Size(), operandType.IsUnsigned()), operand))

	case ir.NEG:
		operandType := g.parent.types.GetType(unary.Operand())
		return likec.NewUnaryOperator(likec.Negation,
			likec.NewTypecast(likec.MakeIntegerType(operandType.Size(), operandType.IsUnsigned()), operand))

	case ir.SIGNEXTEND:
		return likec.NewTypecast(likec.MakeIntegerType(unary.Size(), false),
			likec.NewTypecast(likec.MakeIntegerType(unary.Operand().Size(), false), operand))

	case ir.ZEROEXTEND:
		return likec.NewTypecast(likec.MakeIntegerType(unary.Size(), true),
			likec.NewTypecast(likec.MakeIntegerType(unary.Operand().Size(), true), operand))

	case ir.TRUNCATE:
		return likec.NewTypecast(g.parent.MakeType(g.parent.types.GetType(unary)), operand)

	default:
		log.Warn("Expression synthesis for unsupported unary operator", "function", g.function.Name(), "operator", unary.OperatorKind())
		return operand
	}
}

func (g *DefinitionGenerator) makeBinaryExpression(binary *ir.BinaryOperator) likec.Expression {
	leftType := g.parent.types.GetType(binary.Left())
	rightType := g.parent.types.GetType(binary.Right())

	left := g.makeTermExpression(binary.Left())
	right := g.makeTermExpression(binary.Right())

	// The cast signedness per operand makes the C operator match the
	// IR operator bit-exactly: logical shifts need an unsigned left
	// side, arithmetic shifts and signed division a signed one.
	cast := func(e likec.Expression, size int, unsigned bool) likec.Expression {
		return likec.NewTypecast(likec.MakeIntegerType(size, unsigned), e)
	}

	switch binary.OperatorKind() {
	case ir.AND:
		return likec.NewBinaryOperator(likec.BitwiseAnd,
			cast(left, leftType.Size(), leftType.IsUnsigned()), cast(right, rightType.Size(), rightType.IsUnsigned()))
	case ir.OR:
		return likec.NewBinaryOperator(likec.BitwiseOr,
			cast(left, leftType.Size(), leftType.IsUnsigned()), cast(right, rightType.Size(), rightType.IsUnsigned()))
	case ir.XOR:
		return likec.NewBinaryOperator(likec.BitwiseXor,
			cast(left, leftType.Size(), leftType.IsUnsigned()), cast(right, rightType.Size(), rightType.IsUnsigned()))
	case ir.SHL:
		return likec.NewBinaryOperator(likec.Shl,
			cast(left, leftType.Size(), leftType.IsUnsigned()), cast(right, rightType.Size(), rightType.IsUnsigned()))
	case ir.SHR:
		return likec.NewBinaryOperator(likec.Shr,
			cast(left, leftType.Size(), true), cast(right, rightType.Size(), rightType.IsUnsigned()))
	case ir.SAR:
		return likec.NewBinaryOperator(likec.Shr,
			cast(left, leftType.Size(), false), cast(right, rightType.Size(), rightType.IsUnsigned()))
	case ir.ADD:
		return likec.NewBinaryOperator(likec.Add,
			cast(left, leftType.Size(), leftType.IsUnsigned()), cast(right, rightType.Size(), rightType.IsUnsigned()))
	case ir.SUB:
		return likec.NewBinaryOperator(likec.Sub,
			cast(left, leftType.Size(), leftType.IsUnsigned()), cast(right, rightType.Size(), rightType.IsUnsigned()))
	case ir.MUL:
		return likec.NewBinaryOperator(likec.Mul,
			cast(left, leftType.Size(), leftType.IsUnsigned()), cast(right, rightType.Size(), rightType.IsUnsigned()))
	case ir.SDIV:
		return likec.NewBinaryOperator(likec.Div,
			cast(left, leftType.Size(), false), cast(right, rightType.Size(), false))
	case ir.SREM:
		return likec.NewBinaryOperator(likec.Rem,
			cast(left, leftType.Size(), false), cast(right, rightType.Size(), false))
	case ir.UDIV:
		return likec.NewBinaryOperator(likec.Div,
			cast(left, leftType.Size(), true), cast(right, rightType.Size(), true))
	case ir.UREM:
		return likec.NewBinaryOperator(likec.Rem,
			cast(left, leftType.Size(), true), cast(right, rightType.Size(), true))
	case ir.EQ:
		return likec.NewBinaryOperator(likec.Equal, left, right)
	case ir.SLT:
		return likec.NewBinaryOperator(likec.Less,
			cast(left, leftType.Size(), false), cast(right, rightType.Size(), false))
	case ir.SLE:
		return likec.NewBinaryOperator(likec.LessOrEqual,
			cast(left, leftType.Size(), false), cast(right, rightType.Size(), false))
	case ir.ULT:
		return likec.NewBinaryOperator(likec.Less,
			cast(left, leftType.Size(), true), cast(right, rightType.Size(), true))
	case ir.ULE:
		return likec.NewBinaryOperator(likec.LessOrEqual,
			cast(left, leftType.Size(), true), cast(right, rightType.Size(), true))
	default:
		log.Warn("Expression synthesis for unsupported binary operator", "function", g.function.Name(), "operator", binary.OperatorKind())
		return likec.NewBinaryOperator(likec.Comma, left, right)
	}
}

// makeConstant lowers an integer constant, preferring a string literal
// or a &global per the options when the constant is a pointer into the
// image.
func (g *DefinitionGenerator) makeConstant(t ir.Term, value *uint256.Int) likec.Expression {
	typ := g.parent.types.GetType(t)

	if g.parent.options.PreferCStringsToConstants && g.parent.image != nil && value.IsUint64() {
		if pointee := typ.Pointee(); pointee != nil && pointee.Size() == 8 {
			addr := value.Uint64()
			for _, section := range g.parent.image.Sections() {
				if section.IsAllocated() && section.ContainsAddress(addr) {
					if s, ok := image.NewReader(section).ReadAsciizString(addr, maxStringLength); ok && isASCII(s) {
						return likec.NewStringLiteral(s)
					}
					break
				}
			}
		}
	}

	if g.parent.options.PreferGlobalVariablesToConstants && value.IsUint64() {
		if pointee := typ.Pointee(); pointee != nil && pointee.Size() != 0 {
			return likec.NewUnaryOperator(likec.Reference,
				likec.NewVariableIdentifier(g.parent.MakeGlobalVariableDeclaration(
					ir.MemoryLocation{
						Domain: ir.DomainMemory,
						Addr:   int64(value.Uint64()) * 8,
						Size:   pointee.Size(),
					}, typ)))
		}
	}

	return likec.NewTypecast(g.parent.MakeType(typ),
		likec.NewIntegerConstant(value, likec.MakeIntegerType(typ.Size(), typ.IsUnsigned())))
}

func isASCII(s string) bool {
	for _, c := range s {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// makeVariableAccess emits a reference to the term's variable. A term
// touching only a part of its variable is rendered through pointer
// arithmetic on the variable's address.
func (g *DefinitionGenerator) makeVariableAccess(t ir.Term) likec.Expression {
	variable := g.parent.variables.GetVariable(t)
	identifier := likec.NewVariableIdentifier(g.makeVariableDeclaration(variable))

	termLocation, ok := g.dataflow.GetMemoryLocation(t)
	if !ok || termLocation == variable.MemoryLocation() {
		return identifier
	}

	// Note: this does not handle non-byte-aligned sub-locations; it is
	// unclear they can be expressed in C at all.
	pointerSize := g.parent.arch.PointerSize()
	var termAddress likec.Expression = likec.NewTypecast(
		likec.MakeIntegerType(pointerSize, true),
		likec.NewUnaryOperator(likec.Reference, identifier))

	if termLocation.Addr != variable.MemoryLocation().Addr {
		termAddress = likec.NewBinaryOperator(likec.Add,
			termAddress,
			likec.NewIntegerConstantUint64(
				uint64((termLocation.Addr-variable.MemoryLocation().Addr)/8),
				likec.MakeIntegerType(pointerSize, true)))
	}

	return likec.NewUnaryOperator(likec.Dereference,
		likec.NewTypecast(
			likec.MakePointerType(pointerSize, g.parent.MakeType(g.parent.types.GetType(t))),
			termAddress))
}
