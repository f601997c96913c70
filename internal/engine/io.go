package engine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// maxInputSize is a safety limit to prevent memory exhaustion (100 MB).
const maxInputSize = 100 * 1024 * 1024

// utf8BOM is the UTF-8 Byte Order Mark (EF BB BF).
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM removes the UTF-8 BOM from the beginning of data if present. The
// parser never sees it; the BOM is not part of the grammar.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

func readAllInput(opts Options) ([]byte, error) {
	if opts.UseStdin {
		data, err := io.ReadAll(io.LimitReader(bufio.NewReader(os.Stdin), maxInputSize+1))
		if err != nil {
			return nil, newError(IOFailure, "stdin", err)
		}
		if len(data) > maxInputSize {
			return nil, newError(IOFailure, fmt.Sprintf("input too large (>%d bytes, safety limit)", maxInputSize), nil)
		}
		return stripBOM(data), nil
	}
	fi, err := os.Stat(opts.InputFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newError(IOFailure, fmt.Sprintf("file not found: %s", opts.InputFile), nil)
		}
		return nil, newError(IOFailure, "reading input", err)
	}
	if fi.IsDir() {
		return nil, newError(IOFailure, fmt.Sprintf("input is a directory, not a file: %s", opts.InputFile), nil)
	}
	if fi.Size() > maxInputSize {
		return nil, newError(IOFailure, fmt.Sprintf("file too large (%d bytes, max %d)", fi.Size(), maxInputSize), nil)
	}
	data, err := os.ReadFile(opts.InputFile)
	if err != nil {
		return nil, newError(IOFailure, "reading file", err)
	}
	return stripBOM(data), nil
}

// validateUTF8 checks that data is valid UTF-8 (the grammar expects text).
func validateUTF8(data []byte) error {
	if len(data) == 0 {
		return newError(IOFailure, "file is empty", nil)
	}
	if !utf8.Valid(data) {
		return newError(Utf8Error, "file is not valid UTF-8 — save it as UTF-8 (with or without BOM)", nil)
	}
	return nil
}

func requireInOut(opts Options) error {
	if !opts.UseStdin && opts.InputFile == "" {
		return errors.New("missing -path (use -path <file> or pipe script to stdin with -stdin)")
	}
	return nil
}
