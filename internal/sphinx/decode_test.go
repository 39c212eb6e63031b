package sphinx

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const rawRecord = `{
	"docnames": ["hydrophone", "request"],
	"envversion": {"sphinx": 56},
	"filenames": ["hydrophone.rst", "request.rst"],
	"objects": {},
	"objnames": {},
	"objtypes": {},
	"terms": {"hydrophon": [0, 1], "starttim": 1},
	"titles": ["Hydrophone", "Request"],
	"titleterms": {"hydrophon": 0, "request": 1}
}`

func TestDecode_RawJSON(t *testing.T) {
	ix, err := Decode(bytes.NewReader([]byte(rawRecord)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if ix.PageCount() != 2 {
		t.Errorf("PageCount = %d, want 2", ix.PageCount())
	}
	if ix.Titles[0] != "Hydrophone" {
		t.Errorf("Titles[0] = %q", ix.Titles[0])
	}

	posting, ok := ix.Terms["hydrophon"]
	if !ok {
		t.Fatal("Expected term 'hydrophon' in terms table")
	}
	if posting.Len() != 2 || !posting.Contains(0) || !posting.Contains(1) {
		t.Errorf("Posting = %v, want [0 1]", posting.Indices())
	}

	if single := ix.Terms["starttim"]; single.Len() != 1 || !single.Contains(1) {
		t.Errorf("Bare-int posting = %v, want [1]", single.Indices())
	}
}

func TestDecode_JSWrapper(t *testing.T) {
	artifact := "Search.setIndex(" + rawRecord + ")"

	ix, err := DecodeBytes([]byte(artifact))
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if ix.PageCount() != 2 {
		t.Errorf("PageCount = %d, want 2", ix.PageCount())
	}
}

func TestDecode_JSWrapperWithTrailingSemicolon(t *testing.T) {
	artifact := "Search.setIndex(" + rawRecord + ");\n"

	ix, err := DecodeBytes([]byte(artifact))
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if len(ix.Docnames) != 2 {
		t.Errorf("len(Docnames) = %d, want 2", len(ix.Docnames))
	}
}

func TestDecode_UnquotedKeys(t *testing.T) {
	// Older builders write a JS object literal with bare keys.
	artifact := `Search.setIndex({docnames:["ctd"],envversion:{"sphinx":56},` +
		`filenames:["ctd.rst"],objects:{},objnames:{},objtypes:{},` +
		`terms:{ctd:0},titles:["CTD"],titleterms:{ctd:0}})`

	ix, err := DecodeBytes([]byte(artifact))
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}

	if len(ix.Docnames) != 1 || ix.Docnames[0] != "ctd" {
		t.Errorf("Docnames = %v, want [ctd]", ix.Docnames)
	}
	if posting := ix.Terms["ctd"]; !posting.Contains(0) {
		t.Error("Expected term 'ctd' to post to page 0")
	}
}

func TestDecode_UnquotedNumericKeys(t *testing.T) {
	// The same old builders key the type tables with bare integers.
	// Digit runs in value position must stay bare numbers.
	artifact := `Search.setIndex({docnames:["ctd"],envversion:{sphinx:56},` +
		`filenames:["ctd.rst"],objects:{ctd:{CtdData:[0,0,1,"-"]}},` +
		`objnames:{0:["py","class","Python class"]},objtypes:{0:"py:class"},` +
		`terms:{ctd:0},titles:["CTD"],titleterms:{ctd:0}})`

	ix, err := DecodeBytes([]byte(artifact))
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}

	name, ok := ix.Objnames["0"]
	if !ok {
		t.Fatalf("Objnames = %v, want entry for key \"0\"", ix.Objnames)
	}
	if name.Type != "class" {
		t.Errorf("Objnames[0].Type = %q, want %q", name.Type, "class")
	}
	if got := ix.Objtypes["0"]; got != "py:class" {
		t.Errorf("Objtypes[0] = %q, want %q", got, "py:class")
	}
	if ix.Envversion["sphinx"] != 56 {
		t.Errorf("Envversion[sphinx] = %d, want 56", ix.Envversion["sphinx"])
	}
}

func TestDecode_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte("Search.setIndex(" + rawRecord + ")")); err != nil {
		t.Fatalf("Failed to write gzip data: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}

	ix, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if ix.PageCount() != 2 {
		t.Errorf("PageCount = %d, want 2", ix.PageCount())
	}
}

func TestDecode_Empty(t *testing.T) {
	_, err := DecodeBytes([]byte("  \n"))
	if !errors.Is(err, ErrEmptyArtifact) {
		t.Errorf("Expected ErrEmptyArtifact, got: %v", err)
	}
}

func TestDecode_NoPayload(t *testing.T) {
	_, err := DecodeBytes([]byte("var x = 1;"))
	if !errors.Is(err, ErrNoIndexPayload) {
		t.Errorf("Expected ErrNoIndexPayload, got: %v", err)
	}
}

func TestDecode_UnterminatedWrapper(t *testing.T) {
	_, err := DecodeBytes([]byte("Search.setIndex({"))
	if !errors.Is(err, ErrNoIndexPayload) {
		t.Errorf("Expected ErrNoIndexPayload, got: %v", err)
	}
}

func TestDecode_MalformedRecord(t *testing.T) {
	_, err := DecodeBytes([]byte(`{"docnames": "not-an-array"}`))
	if err == nil {
		t.Error("Expected error for malformed record")
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searchindex.js")
	if err := os.WriteFile(path, []byte("Search.setIndex("+rawRecord+")"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	ix, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if ix.PageCount() != 2 {
		t.Errorf("PageCount = %d, want 2", ix.PageCount())
	}
}

func TestDecodeFile_Missing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "missing.js"))
	if err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestQuoteBareKeys_PreservesStrings(t *testing.T) {
	// A colon inside a string value must not trigger key quoting, and
	// already-quoted input must pass through unchanged.
	input := `{"a": "see: this", "b": true}`
	got := string(quoteBareKeys([]byte(input)))
	if got != input {
		t.Errorf("quoteBareKeys changed strict JSON:\n got: %s\nwant: %s", got, input)
	}
}
