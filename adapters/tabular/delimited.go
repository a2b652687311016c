package tabular

import (
	"bufio"
	"bytes"
	"io"

	"minidash/internal/table"
)

// candidates are the delimiters considered when sniffing a header line
var candidates = []rune{',', ';', '\t', '|'}

// readDelimited parses CSV-like input, guessing the delimiter from the first line
func readDelimited(r io.Reader) (*table.Table, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(64 * 1024)
	return table.FromCSV(br, SniffDelimiter(head))
}

// SniffDelimiter picks the candidate that occurs most often outside quotes on the
// first line. Ties and lines with no candidate fall back to a comma.
func SniffDelimiter(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}

	counts := make(map[rune]int, len(candidates))
	inQuotes := false
	for _, r := range string(sample) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', counts[',']
	for _, c := range candidates[1:] {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}
