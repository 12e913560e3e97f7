package ir

import "testing"

func TestBuilder(t *testing.T) {
	f := &Func{Name: "f"}
	b := NewBuilder(f)
	n := b.Param("n", Int)
	ret := b.ResultSlot("ret", Int)

	arr := b.Alloc("a", NewArray(Int, 4))
	v := b.Load("", n)
	e := b.Index("", arr, v)
	b.Store(e, NewInt(3))
	exit := NewLabel("exit")
	b.CondBr(NewBool(true), exit, exit)
	b.Place(exit)
	r := b.Call("", Int, &FuncRef{Name: "g"}, v, NewFloat(1))
	b.Call("", Void, &FuncRef{Name: "h"})
	b.Store(ret, r)
	b.Label("dead")
	b.Unreachable()

	want := `func f(%n int) %ret int {
  %a = alloc [4]int
  %t1 = load %n
  %t2 = index %a, %t1
  store %t2, 3
  condbr true, exit, exit
exit:
  %t3 = call int @g(%t1, 1.0)
  call @h()
  store %ret, %t3
dead:
  unreachable
}
`
	if got := Sprint(f); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
	if e.Type.String() != "*int" {
		t.Errorf("index type = %s, want *int", e.Type)
	}
	if v.Type != Int {
		t.Errorf("load type = %s, want int", v.Type)
	}
}

func TestBuilderTemps(t *testing.T) {
	b := NewBuilder(&Func{Name: "f"})
	if got := b.Temp("x"); got != "x1" {
		t.Errorf("Temp = %s, want x1", got)
	}
	if got := b.Temp("y"); got != "y2" {
		t.Errorf("Temp = %s, want y2", got)
	}
}
