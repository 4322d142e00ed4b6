package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/common-nighthawk/go-figure"
)

const BannerText = "EasyDL"

// Banner returns the red ASCII-art title shown on errors, help and clean mode.
func Banner() string {
	art := figure.NewFigure(BannerText, "", true).String()
	return errorStyle.Render(strings.TrimRight(art, "\n"))
}

func PrintBanner(w io.Writer) {
	fmt.Fprintln(w, Banner())
}
