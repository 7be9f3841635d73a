package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

func printSection(title string) {
	fmt.Println()
	_, _ = headerColor.Printf("▸ %s\n", title)
	fmt.Println()
}

func printWarning(msg string) {
	_, _ = warningColor.Printf("⚠ %s\n", msg)
}

func printError(msg string) {
	_, _ = errorColor.Fprintf(os.Stderr, "✗ %s\n", msg)
}

func printLabelValue(label, value string) {
	_, _ = labelColor.Printf("  %s: ", label)
	fmt.Println(value)
}

// printReply prints one bridge call and the host reply.
func printReply(line int, command string, reply string) {
	_, _ = dimColor.Printf("%4d ", line)
	fmt.Printf("%-20s ", command)
	if strings.HasPrefix(reply, `["error"`) {
		_, _ = errorColor.Println(reply)
		return
	}
	_, _ = successColor.Println(reply)
}

func printTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, h := range headers {
		_, _ = labelColor.Printf("  %-*s", widths[i]+2, h)
	}
	fmt.Println()
	for _, row := range rows {
		for i, cell := range row {
			fmt.Printf("  %-*s", widths[i]+2, cell)
		}
		fmt.Println()
	}
}

func formatVec(v r3.Vec) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}
