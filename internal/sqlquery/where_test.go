package sqlquery

import "testing"

func TestWhereClauseAnd(t *testing.T) {
	w := NewWhereClause("")
	w.And(NewWhereClause("A = ?", Param{Value: 1}))
	if w.String() != "A = ?" {
		t.Fatalf("And on empty = %q, want no connective", w.String())
	}
	w.And(NewWhereClause(""))
	if w.String() != "A = ?" || len(w.Params()) != 1 {
		t.Fatalf("And with empty = %q %v, want unchanged", w.String(), w.Params())
	}
	w.And(NewWhereClause("B = ?", Param{Value: 2}))
	if w.String() != "A = ? AND B = ?" {
		t.Errorf("And = %q", w.String())
	}
	params := w.Params()
	if len(params) != 2 || params[0].Value != 1 || params[1].Value != 2 {
		t.Errorf("Params() = %v, want [1 2]", params)
	}
}

func TestWhereClauseOr(t *testing.T) {
	w := NewWhereClause("")
	w.Or(NewWhereClause("A = ?", Param{Value: 1}))
	if w.String() != "A = ?" {
		t.Fatalf("Or on empty = %q, want no connective", w.String())
	}
	w.Or(NewWhereClause("B = ?", Param{Value: 2}))
	if w.String() != "(A = ? OR B = ?)" {
		t.Errorf("Or = %q, want parenthesized group", w.String())
	}
	w.And(NewWhereClause("C = ?", Param{Value: 3}))
	if w.String() != "(A = ? OR B = ?) AND C = ?" {
		t.Errorf("And after Or = %q", w.String())
	}
	if len(w.Params()) != 3 {
		t.Errorf("Params() = %v", w.Params())
	}
}

func TestWhereClauseDisjunctionOperand(t *testing.T) {
	w := NewWhereClause("K = ?", Param{Value: "k"})
	w.And(newDisjunction("A = ? OR B = ?", []Param{{Value: 1}, {Value: 2}}))
	if w.String() != "K = ? AND (A = ? OR B = ?)" {
		t.Errorf("And(disjunction) = %q", w.String())
	}

	d := newDisjunction("A = ? OR B = ?", []Param{{Value: 1}, {Value: 2}})
	d.And(NewWhereClause("K = ?", Param{Value: "k"}))
	if d.String() != "(A = ? OR B = ?) AND K = ?" {
		t.Errorf("disjunction.And = %q", d.String())
	}
	if d.Params()[2].Value != "k" {
		t.Errorf("param order = %v", d.Params())
	}
}

func TestWhereClauseNil(t *testing.T) {
	var w *WhereClause
	if !w.IsEmpty() || w.String() != "" || w.Params() != nil {
		t.Error("nil clause should be empty")
	}
}
