package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStripBOMRemovesLeadingMark(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("4 + 5")...)
	got := stripBOM(data)
	if string(got) != "4 + 5" {
		t.Fatalf("stripBOM = %q, want %q", got, "4 + 5")
	}
}

func TestStripBOMNoOpWithoutMark(t *testing.T) {
	data := []byte("4 + 5")
	got := stripBOM(data)
	if string(got) != "4 + 5" {
		t.Fatalf("stripBOM = %q, want unchanged %q", got, "4 + 5")
	}
}

func TestValidateUTF8RejectsInvalidBytes(t *testing.T) {
	err := validateUTF8([]byte{0xff, 0xfe, 0xfd})
	if err == nil {
		t.Fatal("validateUTF8 should reject invalid UTF-8")
	}
	var e *Error
	if !asEngineError(err, &e) || e.Kind != Utf8Error {
		t.Fatalf("validateUTF8 error = %v, want Kind=Utf8Error", err)
	}
}

func TestValidateUTF8RejectsEmpty(t *testing.T) {
	if err := validateUTF8(nil); err == nil {
		t.Fatal("validateUTF8 should reject empty input")
	}
}

func TestValidateUTF8AcceptsValidText(t *testing.T) {
	if err := validateUTF8([]byte("4 + 5")); err != nil {
		t.Fatalf("validateUTF8 rejected valid text: %v", err)
	}
}

func TestReadAllInputRejectsMissingFile(t *testing.T) {
	_, err := readAllInput(Options{InputFile: filepath.Join(t.TempDir(), "nope.ps1")})
	if err == nil {
		t.Fatal("readAllInput should fail for a missing file")
	}
}

func TestReadAllInputRejectsDirectory(t *testing.T) {
	_, err := readAllInput(Options{InputFile: t.TempDir()})
	if err == nil {
		t.Fatal("readAllInput should fail when given a directory")
	}
}

func TestReadAllInputStripsBOMFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.ps1")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("4 + 5")...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := readAllInput(Options{InputFile: path})
	if err != nil {
		t.Fatalf("readAllInput: %v", err)
	}
	if string(data) != "4 + 5" {
		t.Fatalf("readAllInput = %q, want %q", data, "4 + 5")
	}
}

func TestRequireInOutRejectsNeitherPathNorStdin(t *testing.T) {
	if err := requireInOut(Options{}); err == nil {
		t.Fatal("requireInOut should fail when neither -path nor -stdin is set")
	}
}

func TestRequireInOutAcceptsStdin(t *testing.T) {
	if err := requireInOut(Options{UseStdin: true}); err != nil {
		t.Fatalf("requireInOut rejected -stdin: %v", err)
	}
}

// asEngineError is a small helper so these tests don't need to import
// errors.As at every call site.
func asEngineError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
