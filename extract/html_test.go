package extract

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExtractor_Extract_Basic(t *testing.T) {
	e := NewExtractor()

	page := `<div><h1>Привіт світ</h1><p>Ласкаво   просимо.</p></div>`
	doc, snippets, err := e.Extract(strings.NewReader(page))

	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if doc == nil {
		t.Fatal("doc should not be nil")
	}

	if len(snippets) != 2 {
		t.Fatalf("Expected 2 snippets, got %d", len(snippets))
	}

	if snippets[0].Text != "Привіт світ" || snippets[0].Tag != "h1" {
		t.Errorf("Unexpected first snippet: %+v", snippets[0])
	}

	// Whitespace is normalized like the endpoint does
	if snippets[1].Text != "Ласкаво просимо." {
		t.Errorf("Expected 'Ласкаво просимо.', got %q", snippets[1].Text)
	}
}

func TestExtractor_Extract_IgnoredTags(t *testing.T) {
	e := NewExtractor()

	page := `<div>
		<p>Перекладіть</p>
		<script>doNotTranslate();</script>
		<style>.class { color: red; }</style>
		<code>const x = 1;</code>
		<pre>preformatted</pre>
		<textarea>form input</textarea>
	</div>`

	_, snippets, err := e.Extract(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if !reflect.DeepEqual(Texts(snippets), []string{"Перекладіть"}) {
		t.Errorf("Expected only the paragraph, got %v", Texts(snippets))
	}
}

func TestExtractor_Extract_CustomIgnoredTags(t *testing.T) {
	e := NewExtractorWithIgnoredTags([]string{"ASIDE"})

	_, snippets, _ := e.Extract(strings.NewReader(`<p>Так</p><aside>Ні</aside><code>Код</code>`))

	if !reflect.DeepEqual(Texts(snippets), []string{"Так", "Код"}) {
		t.Errorf("Unexpected snippets: %v", Texts(snippets))
	}
}

func TestExtractor_Extract_DataNoTranslate(t *testing.T) {
	e := NewExtractor()

	page := `<div><p>Перекладіть</p><p data-no-translate>Бренд</p><div data-no-translate><span>Вкладене</span></div></div>`
	_, snippets, _ := e.Extract(strings.NewReader(page))

	if !reflect.DeepEqual(Texts(snippets), []string{"Перекладіть"}) {
		t.Errorf("Unexpected snippets: %v", Texts(snippets))
	}
}

func TestExtractor_Extract_Deduplication(t *testing.T) {
	e := NewExtractor()

	page := `<ul><li>Так</li><li> Так </li><li>Ні</li></ul>`
	_, snippets, _ := e.Extract(strings.NewReader(page))

	if !reflect.DeepEqual(Texts(snippets), []string{"Так", "Ні"}) {
		t.Errorf("Unexpected snippets: %v", Texts(snippets))
	}
}

func TestExtractor_Extract_Attributes(t *testing.T) {
	e := NewExtractor()

	page := `<img src="a.png" alt="Логотип"><input placeholder="Пошук" value="x"><a href="/" title="Головна">Дім</a>`
	_, snippets, _ := e.Extract(strings.NewReader(page))

	expected := []string{"Логотип", "Пошук", "Головна", "Дім"}
	if !reflect.DeepEqual(Texts(snippets), expected) {
		t.Errorf("Expected %v, got %v", expected, Texts(snippets))
	}
	if snippets[0].Attr != "alt" || snippets[0].Tag != "img" {
		t.Errorf("Unexpected attribute snippet: %+v", snippets[0])
	}
}

func TestExtractor_Extract_Context(t *testing.T) {
	e := NewExtractor()

	page := `<nav><ul><li class="active">Головна</li></ul></nav>`
	_, snippets, _ := e.Extract(strings.NewReader(page))

	if len(snippets) != 1 {
		t.Fatalf("Expected 1 snippet, got %d", len(snippets))
	}
	if snippets[0].Context != `nav > ul > li class="active"` {
		t.Errorf("Unexpected context %q", snippets[0].Context)
	}
}

func TestDocument_Apply(t *testing.T) {
	e := NewExtractor()

	page := `<div><h1>Привіт</h1><p title="Підказка">Світ</p><script>var s = "Привіт";</script></div>`
	doc, _, err := e.Extract(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	out, err := doc.Apply(map[string]string{
		"Привіт":   "Hello",
		"Світ":     "World",
		"Підказка": "Hint",
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, want := range []string{"<h1>Hello</h1>", `title="Hint"`, ">World</p>", `var s = "Привіт";`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in result, got: %s", want, out)
		}
	}
}

func TestDocument_Apply_PreservesWhitespace(t *testing.T) {
	e := NewExtractor()

	doc, _, _ := e.Extract(strings.NewReader("<p>\n  Привіт   світ  \n</p>"))
	out, _ := doc.Apply(map[string]string{"Привіт світ": "Hello world"})

	if !strings.Contains(out, "<p>\n  Hello world  \n</p>") {
		t.Errorf("Whitespace not preserved: %q", out)
	}
}

func TestExtractor_MaxTextLength(t *testing.T) {
	e := NewExtractor().WithMaxTextLength(6)

	doc, snippets, err := e.Extract(strings.NewReader(`<p>Привіт світ</p><img alt="Привіт друже">`))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// Both texts truncate to the same key
	if !reflect.DeepEqual(Texts(snippets), []string{"Привіт"}) {
		t.Fatalf("Unexpected snippets: %v", Texts(snippets))
	}

	out, err := doc.Apply(map[string]string{"Привіт": "Hello"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for _, want := range []string{"<p>Hello</p>", `alt="Hello"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in result, got: %s", want, out)
		}
	}
}

func TestPreserveWhitespace(t *testing.T) {
	tests := []struct {
		original   string
		translated string
		expected   string
	}{
		{"Привіт", "Hello", "Hello"},
		{"  Привіт", "Hello", "  Hello"},
		{"Привіт  ", "Hello", "Hello  "},
		{"\n\tПривіт\n", "Hello", "\n\tHello\n"},
	}

	for _, tt := range tests {
		if got := preserveWhitespace(tt.original, tt.translated); got != tt.expected {
			t.Errorf("preserveWhitespace(%q, %q) = %q, want %q", tt.original, tt.translated, got, tt.expected)
		}
	}
}

func TestExtractor_EmptyContent(t *testing.T) {
	e := NewExtractor()

	_, snippets, err := e.Extract(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(snippets) != 0 {
		t.Errorf("Expected 0 snippets, got %d", len(snippets))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestExtractor_ReadError(t *testing.T) {
	if _, _, err := NewExtractor().Extract(failingReader{}); err == nil {
		t.Error("Expected error from failing reader")
	}
}
