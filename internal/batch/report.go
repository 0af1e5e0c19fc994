package batch

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/okian/racerank/internal/domain/types"
)

// RenderStandings writes the standings as a table.
func RenderStandings(w io.Writer, standings []types.Standing) error {
	rows := make([][]string, len(standings))
	for i, s := range standings {
		rows[i] = []string{
			strconv.Itoa(s.Rank),
			strings.TrimSpace(s.LastName + " " + s.FirstName),
			strconv.Itoa(s.Points),
			strconv.Itoa(s.BonusKm),
			strconv.Itoa(s.Races),
			flags(s.IsMember, s.IsChallenger, s.External),
		}
	}
	return writeTable(w, []string{"#", "Name", "Points", "Km", "Races", ""}, rows)
}

// RenderClassification writes one row per (member, race) entry.
func RenderClassification(w io.Writer, entries []types.ClassificationEntry) error {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			strings.TrimSpace(e.LastName + " " + e.FirstName),
			e.Race,
			strconv.Itoa(e.DistanceKm),
			e.RaceTime,
			strconv.Itoa(e.Points),
			strconv.Itoa(e.BonusKm),
			flags(e.IsMember, e.IsChallenger, e.External),
		}
	}
	return writeTable(w, []string{"Name", "Race", "Km", "Time", "Points", "Bonus", ""}, rows)
}

// RenderJobs writes the outcome of every submission.
func RenderJobs(w io.Writer, subs []Submission) error {
	rows := make([][]string, len(subs))
	for i, s := range subs {
		state, detail := string(s.Status.State), s.Status.Error
		switch {
		case s.Err != nil:
			state, detail = "rejected", s.Err.Error()
		case s.Result.Duplicate && state == "":
			state = "duplicate"
		case state == "":
			state = string(types.JobPending)
		}
		rows[i] = []string{filepath.Base(s.File), state, strconv.Itoa(s.Status.Entries), detail}
	}
	return writeTable(w, []string{"File", "State", "Entries", "Detail"}, rows)
}

func flags(member, challenger, external bool) string {
	var f []string
	if member {
		f = append(f, "member")
	}
	if challenger {
		f = append(f, "challenger")
	}
	if external {
		f = append(f, "external")
	}
	return strings.Join(f, ",")
}

// writeTable pads cells by display width so accented names stay aligned.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = max(runewidth.StringWidth(h), 1)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	line := func(cells []string) string {
		var sb strings.Builder
		sb.WriteString("|")
		for i, width := range widths {
			content := ""
			if i < len(cells) {
				content = cells[i]
			}
			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(content, width))
			sb.WriteString(" |")
		}
		return sb.String()
	}

	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}

	lines := []string{line(header), line(sep)}
	for _, row := range rows {
		lines = append(lines, line(row))
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
