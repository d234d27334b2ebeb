package core

import "testing"

func TestParsePayload(t *testing.T) {
	t.Run("unwraps data", func(t *testing.T) {
		p := ParsePayload([]byte(`{"code":200,"msg":"ok","data":{"totalUsage":{"totalTokensUsage":1200}}}`))
		obj, ok := p.Object()
		if !ok {
			t.Fatalf("Object() not ok, payload = %#v", p)
		}
		if _, ok := obj["totalUsage"]; !ok {
			t.Fatalf("data member was not unwrapped: %#v", obj)
		}
	})

	t.Run("null data keeps document", func(t *testing.T) {
		p := ParsePayload([]byte(`{"code":200,"data":null}`))
		obj, ok := p.Object()
		if !ok || obj["code"] != float64(200) {
			t.Fatalf("payload = %#v, want whole document", p)
		}
	})

	t.Run("non json degrades to text", func(t *testing.T) {
		body := "<html>gateway</html>"
		p := ParsePayload([]byte(body))
		if !p.IsText() {
			t.Fatalf("IsText() = false, payload = %#v", p)
		}
		if p.Text != body {
			t.Fatalf("Text = %q, want %q", p.Text, body)
		}
	})

	t.Run("array document", func(t *testing.T) {
		p := ParsePayload([]byte(`[1,2]`))
		if p.IsText() {
			t.Fatal("array parsed as text")
		}
		if _, ok := p.Object(); ok {
			t.Fatal("array reported as object")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		p := ParsePayload(nil)
		if !p.IsEmpty() {
			t.Fatalf("payload = %#v, want empty", p)
		}
	})
}

func TestPayloadTotals(t *testing.T) {
	p := ParsePayload([]byte(`{"data":{"x_time":["a"],"totalUsage":{"totalModelCallCount":42,"totalTokensUsage":9000,"note":"x"}}}`))
	got := p.Totals()
	if len(got) != 2 {
		t.Fatalf("len(Totals()) = %d, want 2: %#v", len(got), got)
	}
	if got[0].Name != "totalModelCallCount" || got[0].Value != 42 {
		t.Errorf("got[0] = %#v", got[0])
	}
	if got[1].Name != "totalTokensUsage" || got[1].Value != 9000 {
		t.Errorf("got[1] = %#v", got[1])
	}

	if totals := (Payload{Text: "oops"}).Totals(); totals != nil {
		t.Errorf("text payload totals = %#v, want nil", totals)
	}
}
