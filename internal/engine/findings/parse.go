// Package findings turns analyzer reports into per-file results for the ratchet.
package findings

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	domainerrors "ratchet/internal/core/errors"
	"ratchet/internal/engine/ratchet"
)

const (
	FormatAuto   = "auto"
	FormatESLint = "eslint"
	FormatSARIF  = "sarif"
)

// SupportedFormats lists the accepted format names.
var SupportedFormats = []string{FormatAuto, FormatESLint, FormatSARIF}

// Parse decodes a report in the named format. "auto" picks ESLint for a top-level JSON
// array and SARIF for a top-level object.
func Parse(format string, r io.Reader) ([]ratchet.FileResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatAuto
	}

	br := bufio.NewReader(r)
	if format == FormatAuto {
		detected, err := detectFormat(br)
		if err != nil {
			return nil, domainerrors.AddContext(
				domainerrors.Wrap(err, domainerrors.CodeValidationError, "detect report format"),
				domainerrors.CtxFormat, format,
			)
		}
		format = detected
	}

	var (
		results []ratchet.FileResult
		err     error
	)
	switch format {
	case FormatESLint:
		results, err = ParseESLint(br)
	case FormatSARIF:
		results, err = ParseSARIF(br)
	default:
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeValidationError, fmt.Sprintf("unsupported report format (supported: %s)", strings.Join(SupportedFormats, ", "))),
			domainerrors.CtxFormat, format,
		)
	}
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeValidationError, "parse analyzer report"),
			domainerrors.CtxFormat, format,
		)
	}
	return results, nil
}

func detectFormat(br *bufio.Reader) (string, error) {
	for {
		r, _, err := br.ReadRune()
		if err != nil {
			if err == io.EOF {
				return "", fmt.Errorf("empty report")
			}
			return "", err
		}
		if unicode.IsSpace(r) || r == '\uFEFF' {
			continue
		}
		if err := br.UnreadRune(); err != nil {
			return "", err
		}
		switch r {
		case '[':
			return FormatESLint, nil
		case '{':
			return FormatSARIF, nil
		default:
			return "", fmt.Errorf("report does not start with a JSON array or object")
		}
	}
}
