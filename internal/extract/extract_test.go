package extract

import (
	"reflect"
	"testing"
)

func TestPlainTokens(t *testing.T) {
	got := PlainTokens([]byte("Hello World"))
	want := []string{"hello", "world"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PlainTokens = %v, want %v", got, want)
	}

	// Same part twice in a row yields the same result; no leaked state.
	again := PlainTokens([]byte("Hello World"))
	if !reflect.DeepEqual(again, want) {
		t.Errorf("repeated PlainTokens = %v, want %v", again, want)
	}
}

func TestPlainTokensWhitespace(t *testing.T) {
	if got := PlainTokens([]byte("  \t \n ")); len(got) != 0 {
		t.Errorf("whitespace-only part: got %v, want empty", got)
	}
	if got := PlainTokens(nil); got != nil {
		t.Errorf("nil part: got %v, want nil", got)
	}
}

func TestHTMLTokens(t *testing.T) {
	payload := []byte(`<html><body>
		<h1>Invoice March</h1>
		<p>Your <b>invoice</b> is attached.</p>
	</body></html>`)

	got := HTMLTokens(payload)
	want := []string{"invoice", "march", "your", "is", "attached."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HTMLTokens = %v, want %v", got, want)
	}
}

func TestHTMLTokensDedupOrder(t *testing.T) {
	got := HTMLTokens([]byte("<p>beta alpha beta</p><p>alpha gamma</p>"))
	want := []string{"beta", "alpha", "gamma"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HTMLTokens = %v, want %v", got, want)
	}
}

func TestHTMLTokensSkipsScriptAndStyle(t *testing.T) {
	payload := []byte(`<style>p { color: red }</style>
		<script>var secret = "hidden";</script>
		<p>visible</p>`)

	got := HTMLTokens(payload)
	want := []string{"visible"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HTMLTokens = %v, want %v", got, want)
	}
}

func TestHTMLTokensConcurrent(t *testing.T) {
	payload := []byte("<p>one two three</p>")
	want := []string{"one", "two", "three"}

	done := make(chan []string)
	for i := 0; i < 8; i++ {
		go func() { done <- HTMLTokens(payload) }()
	}
	for i := 0; i < 8; i++ {
		if got := <-done; !reflect.DeepEqual(got, want) {
			t.Errorf("concurrent HTMLTokens = %v, want %v", got, want)
		}
	}
}

func TestHTMLTokensNilPart(t *testing.T) {
	if got := HTMLTokens(nil); got != nil {
		t.Errorf("nil part: got %v, want nil", got)
	}
}

func TestHTMLTokensMalformed(t *testing.T) {
	// Unclosed tags still yield tokens rather than an error; the
	// tokenizer recovers from anything short of a read failure.
	got := HTMLTokens([]byte("<p><b>hello world"))
	want := []string{"hello", "world"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HTMLTokens = %v, want %v", got, want)
	}
}
