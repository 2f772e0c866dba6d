package vm

import (
	"github.com/axe-run/axe-interpreter/memmap"
	"github.com/axe-run/axe-interpreter/parser"
)

// Eval evaluates an expression against the driver's calculator state,
// including any side effects (assignments, increments, drawing
// commands). Axe has no boolean type: comparisons yield 1 or 0, and
// any non-zero value is truthy in a condition.
func (d *Driver) Eval(expr parser.Expression) (int64, error) {
	switch e := expr.(type) {
	case *parser.IntegerLiteral:
		return e.Value, nil

	case *parser.VarRef:
		return int64(d.Calc.GetVar(e.Letter)), nil

	case *parser.RegionRef:
		offset, ok := memmap.RegionOffset(e.Name)
		if !ok {
			return 0, &RuntimeError{Pos: e.Position, Message: "unknown region " + e.Name}
		}
		return int64(offset), nil

	case *parser.Pointer:
		addr, err := d.Eval(e.Address)
		if err != nil {
			return 0, err
		}
		if e.Width == 2 {
			return int64(d.Calc.GetWord(int(addr))), nil
		}
		return int64(d.Calc.GetByte(int(addr))), nil

	case *parser.Dereference:
		innerAddr, err := d.Eval(e.Inner)
		if err != nil {
			return 0, err
		}
		pointedAddr := d.Calc.GetWord(int(innerAddr))
		if e.Width == 2 {
			return int64(d.Calc.GetWord(int(pointedAddr))), nil
		}
		return int64(d.Calc.GetByte(int(pointedAddr))), nil

	case *parser.LowByte:
		addr, err := d.pointerAddress(e.Inner)
		if err != nil {
			return 0, err
		}
		return int64(d.Calc.GetByte(addr)), nil

	case *parser.LabelRef:
		idx, ok := d.Code.ResolveLabel(e.Name)
		if !ok {
			return 0, &MissingLabel{Pos: e.Position, Name: e.Name}
		}
		return int64(idx), nil

	case *parser.BinaryExpr:
		return d.evalBinary(e)

	case *parser.Assignment:
		return d.evalAssignment(e)

	case *parser.IncDec:
		return d.evalIncDec(e)

	case *parser.Square:
		v, err := d.Eval(e.Operand)
		if err != nil {
			return 0, err
		}
		return v * v, nil

	case *parser.Command:
		return d.evalCommand(e)
	}

	return 0, &RuntimeError{Pos: expr.Pos(), Message: "unevaluable expression"}
}

func (d *Driver) evalBinary(e *parser.BinaryExpr) (int64, error) {
	left, err := d.Eval(e.Left)
	if err != nil {
		return 0, err
	}
	right, err := d.Eval(e.Right)
	if err != nil {
		return 0, err
	}

	switch e.Op {
	case parser.OpAdd:
		return left + right, nil
	case parser.OpSub:
		return left - right, nil
	case parser.OpMul:
		return left * right, nil
	case parser.OpDiv:
		if right == 0 {
			return 0, &RuntimeError{Pos: e.Position, Message: "division by zero"}
		}
		return left / right, nil
	case parser.OpMod:
		if right == 0 {
			return 0, &RuntimeError{Pos: e.Position, Message: "division by zero"}
		}
		return left % right, nil
	case parser.OpLT:
		return boolInt(left < right), nil
	case parser.OpLE:
		return boolInt(left <= right), nil
	case parser.OpEQ:
		return boolInt(left == right), nil
	case parser.OpNE:
		return boolInt(left != right), nil
	case parser.OpGT:
		return boolInt(left > right), nil
	case parser.OpGE:
		return boolInt(left >= right), nil
	}
	return 0, &RuntimeError{Pos: e.Position, Message: "unknown operator"}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// pointerAddress evaluates an assignment/low-byte target down to the
// concrete memory address it refers to, without reading through it.
func (d *Driver) pointerAddress(expr parser.Expression) (int, error) {
	switch t := expr.(type) {
	case *parser.VarRef:
		return int(memmap.VarAddress(t.Letter)), nil
	case *parser.Pointer:
		addr, err := d.Eval(t.Address)
		if err != nil {
			return 0, err
		}
		return int(addr), nil
	case *parser.Dereference:
		innerAddr, err := d.Eval(t.Inner)
		if err != nil {
			return 0, err
		}
		return int(d.Calc.GetWord(int(innerAddr))), nil
	}
	return 0, &RuntimeError{Pos: expr.Pos(), Message: "expression is not assignable"}
}

func (d *Driver) evalAssignment(e *parser.Assignment) (int64, error) {
	value, err := d.Eval(e.Value)
	if err != nil {
		return 0, err
	}

	switch t := e.Target.(type) {
	case *parser.VarRef:
		d.Calc.SetVar(t.Letter, uint16(value))
		return value, nil
	case *parser.Pointer:
		addr, err := d.Eval(t.Address)
		if err != nil {
			return 0, err
		}
		if t.Width == 2 {
			d.Calc.SetWord(int(addr), uint16(value))
		} else {
			d.Calc.SetByte(int(addr), byte(value))
		}
		return value, nil
	case *parser.Dereference:
		innerAddr, err := d.Eval(t.Inner)
		if err != nil {
			return 0, err
		}
		pointedAddr := int(d.Calc.GetWord(int(innerAddr)))
		if t.Width == 2 {
			d.Calc.SetWord(pointedAddr, uint16(value))
		} else {
			d.Calc.SetByte(pointedAddr, byte(value))
		}
		return value, nil
	}
	return 0, &RuntimeError{Pos: e.Position, Message: "assignment target must be a variable or pointer"}
}

func (d *Driver) evalIncDec(e *parser.IncDec) (int64, error) {
	addr, err := d.pointerAddress(e.Target)
	if err != nil {
		return 0, err
	}
	width := widthOf(e.Target)
	var current int64
	if width == 2 {
		current = int64(d.Calc.GetWord(addr))
	} else {
		current = int64(d.Calc.GetByte(addr))
	}
	next := current + e.Delta
	if width == 2 {
		d.Calc.SetWord(addr, uint16(next))
	} else {
		d.Calc.SetByte(addr, byte(next))
	}
	return next, nil
}

func widthOf(expr parser.Expression) int {
	switch t := expr.(type) {
	case *parser.VarRef:
		return 2
	case *parser.Pointer:
		return t.Width
	case *parser.Dereference:
		return t.Width
	}
	return 1
}
