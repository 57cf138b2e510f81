package card

import (
	"fmt"
	"os"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Fonts holds the parsed faces used on the card.
type Fonts struct {
	Regular *opentype.Font
	Bold    *opentype.Font
	// Fallback is set when the bundled Go fonts are used. They carry no CJK
	// glyphs, so Chinese text renders as placeholder boxes.
	Fallback bool
}

// LoadFonts parses TrueType/OpenType files. An empty regular path selects the
// Go fonts; an empty bold path reuses the regular font.
func LoadFonts(regularPath, boldPath string) (Fonts, error) {
	if regularPath == "" {
		return defaultFonts()
	}
	regular, err := parseFontFile(regularPath)
	if err != nil {
		return Fonts{}, err
	}
	bold := regular
	if boldPath != "" {
		if bold, err = parseFontFile(boldPath); err != nil {
			return Fonts{}, err
		}
	}
	return Fonts{Regular: regular, Bold: bold}, nil
}

func defaultFonts() (Fonts, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return Fonts{}, fmt.Errorf("card: parse go regular: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return Fonts{}, fmt.Errorf("card: parse go bold: %w", err)
	}
	return Fonts{Regular: regular, Bold: bold, Fallback: true}, nil
}

func parseFontFile(path string) (*opentype.Font, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("card: read font %s: %w", path, err)
	}
	f, err := opentype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("card: parse font %s: %w", path, err)
	}
	return f, nil
}
