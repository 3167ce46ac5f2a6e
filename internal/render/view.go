// Package render prints a read-only text view of an entity: the region
// overlay, the statements without a region, the region controls, the active
// session and the comment threads. Nothing is read back from the output.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ppiankov/depicta/internal/comments"
	"github.com/ppiankov/depicta/internal/identity"
	"github.com/ppiankov/depicta/internal/model"
	"github.com/ppiankov/depicta/internal/regions"
)

const rule = "═══════════════════════════════════════════════════════════"

// Page is everything shown for one entity.
type Page struct {
	View       regions.View
	Threads    []comments.Thread
	Properties []model.PropertyConfig
}

// Write renders the page to w.
func Write(w io.Writer, p Page) error {
	var b strings.Builder

	v := p.View
	fmt.Fprintf(&b, "%s\n  %s (%s)\n%s\n\n", rule, v.Entity.ID, v.Entity.Domain, rule)
	fmt.Fprintf(&b, "Image: %s\n", v.Entity.Image.Src)
	if v.Session != nil && v.Session.SourceSwapped {
		b.WriteString("       (showing a croppable thumbnail)\n")
	}
	b.WriteString("\n")

	writeOverlay(&b, v)

	threads := indexThreads(p.Threads)
	for _, list := range v.WithoutRegion {
		fmt.Fprintf(&b, "%s with no region specified:\n", listLabel(p.Properties, list.PropertyID))
		if len(list.Statements) == 0 {
			b.WriteString("  (none)\n")
		}
		for _, s := range list.Statements {
			fmt.Fprintf(&b, "  - %s%s\n", s.DisplayLabel(), statementActions(s, v))
			if th, ok := threads[s.ID]; ok && th.Placement == comments.UnderStatement {
				writeComments(&b, th, "      ")
			}
		}
		b.WriteString("\n")
	}

	var panel []comments.Thread
	var orphans []comments.Thread
	for _, th := range p.Threads {
		if th.Placement == comments.RegionPanel {
			panel = append(panel, th)
		} else if !listed(v, th.StatementID) {
			orphans = append(orphans, th)
		}
	}
	if len(panel) > 0 {
		b.WriteString("Comments on regions:\n")
		for _, th := range panel {
			fmt.Fprintf(&b, "  %s\n", th.Heading)
			writeComments(&b, th, "    ")
		}
		b.WriteString("\n")
	}
	// threads on statements that are gone still belong under their statement
	for _, th := range orphans {
		fmt.Fprintf(&b, "Comments on %s:\n", th.StatementID)
		writeComments(&b, th, "    ")
		b.WriteString("\n")
	}

	writeControls(&b, v)
	writeSession(&b, v.Session)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeOverlay(b *strings.Builder, v regions.View) {
	b.WriteString("Regions:\n")
	if len(v.Overlay) == 0 {
		b.WriteString("  (none)\n\n")
		return
	}
	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	for _, s := range v.Overlay {
		fmt.Fprintf(tw, "  %s\t%s\tz=%d\t%s\n", s.DisplayLabel(), s.Region.String(), s.Region.ZIndex(), s.Kind())
	}
	_ = tw.Flush()
	b.WriteString("\n")
}

func writeComments(b *strings.Builder, th comments.Thread, indent string) {
	for _, c := range th.Comments {
		fmt.Fprintf(b, "%s%s: %s\n", indent, c.Author, c.Text)
	}
}

func writeControls(b *strings.Builder, v regions.View) {
	var controls []string
	if v.RegionControls {
		controls = append(controls, "[edit region]", "[delete region]")
	}
	if v.Approved {
		controls = append(controls, "[upload]")
	}
	if len(controls) == 0 {
		return
	}
	fmt.Fprintf(b, "Controls: %s\n", strings.Join(controls, " "))
}

func writeSession(b *strings.Builder, s *regions.SessionView) {
	if s == nil {
		return
	}
	fmt.Fprintf(b, "\nSession: %s region, %s", s.Mode, s.State)
	if s.StatementID != "" {
		fmt.Fprintf(b, " on %s", s.StatementID)
	}
	b.WriteString("\n")
	if len(s.ClickTargets) > 0 {
		fmt.Fprintf(b, "  Pick one of: %s\n", strings.Join(s.ClickTargets, ", "))
	}
	if !s.Crop.Empty() {
		fmt.Fprintf(b, "  Crop: x=%.0f y=%.0f w=%.0f h=%.0f\n", s.Crop.X, s.Crop.Y, s.Crop.Width, s.Crop.Height)
	}
	if s.CancelControl {
		fmt.Fprintf(b, "  [cancel] or press %s\n", regions.KeyEscape)
	}
}

// statementActions lists the per-statement buttons. They are hidden while a
// session is open.
func statementActions(s model.Statement, v regions.View) string {
	if v.Session != nil {
		return ""
	}
	actions := []string{}
	if identity.CanEditRegion(s.ID) {
		actions = append(actions, "[add region]")
	}
	if identity.CanDelete(s.ID) {
		actions = append(actions, "[delete]")
	}
	return "  " + strings.Join(actions, " ")
}

func listLabel(props []model.PropertyConfig, id string) string {
	for _, p := range props {
		if p.ID == id && p.ListLabel != "" {
			return p.ListLabel
		}
	}
	return id
}

func indexThreads(threads []comments.Thread) map[string]comments.Thread {
	m := make(map[string]comments.Thread, len(threads))
	for _, th := range threads {
		m[th.StatementID] = th
	}
	return m
}

func listed(v regions.View, id string) bool {
	for _, list := range v.WithoutRegion {
		for _, s := range list.Statements {
			if s.ID == id {
				return true
			}
		}
	}
	return false
}
