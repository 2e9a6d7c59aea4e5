package main

import (
	"fmt"
	"io"
	"strings"

	client "github.com/disasterwatch/client"
	"github.com/disasterwatch/client/internal/projector"
)

func sectionNote(s projector.Section) string {
	var notes []string
	if s.Stale {
		notes = append(notes, "stale")
	}
	if s.Refreshing {
		notes = append(notes, "refreshing")
	}
	if len(notes) == 0 {
		return ""
	}
	return " (" + strings.Join(notes, ", ") + ")"
}

func renderDisasters(w io.Writer, l projector.DisasterList) {
	fmt.Fprintf(w, "Disasters%s\n", sectionNote(l.Section))
	if l.Status != projector.StatusReady {
		fmt.Fprintf(w, "  %s\n", l.Placeholder)
		return
	}
	for _, c := range l.Cards {
		fmt.Fprintf(w, "  [%s] %s - %s\n", c.ID, c.Title, c.Location)
		if c.Description != "" {
			fmt.Fprintf(w, "      %s\n", c.Description)
		}
		var tags []string
		for _, t := range c.Tags {
			if t.Urgent {
				tags = append(tags, strings.ToUpper(t.Name))
				continue
			}
			tags = append(tags, t.Name)
		}
		created := "-"
		if !c.Created.IsZero() {
			created = c.Created.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "      owner=%s created=%s tags=%s", c.Owner, created, strings.Join(tags, ","))
		for _, a := range c.Actions {
			if a == projector.ActionDelete {
				fmt.Fprint(w, " [deletable]")
			}
		}
		fmt.Fprintln(w)
	}
}

func renderSocial(w io.Writer, f projector.SocialFeed) {
	fmt.Fprintf(w, "Social media for %s%s\n", f.DisasterID, sectionNote(f.Section))
	if f.Status != projector.StatusReady {
		fmt.Fprintf(w, "  %s\n", f.Placeholder)
		return
	}
	for _, p := range f.Posts {
		fmt.Fprintf(w, "  %s %s: %s\n", p.Time.Local().Format("15:04:05"), p.Handle, p.Text)
	}
}

func renderResources(w io.Writer, l projector.ResourceList) {
	fmt.Fprintf(w, "Resources for %s near %g,%g (%gm)%s\n", l.DisasterID, l.Query.Lat, l.Query.Lon, l.Query.Radius, sectionNote(l.Section))
	if l.Status != projector.StatusReady {
		fmt.Fprintf(w, "  %s\n", l.Placeholder)
		return
	}
	for _, r := range l.Items {
		fmt.Fprintf(w, "  %s (%s) - %s\n", r.Name, r.Type, r.Location)
	}
}

func renderUpdates(w io.Writer, l projector.UpdateList) {
	fmt.Fprintf(w, "Official updates for %s%s\n", l.DisasterID, sectionNote(l.Section))
	if l.Status != projector.StatusReady {
		fmt.Fprintf(w, "  %s\n", l.Placeholder)
		return
	}
	for _, u := range l.Items {
		fmt.Fprintf(w, "  %s %s: %s\n", u.Time.Local().Format("2006-01-02 15:04"), u.Source, u.Title)
		if u.Content != "" {
			fmt.Fprintf(w, "      %s\n", u.Content)
		}
		if u.URL != "" {
			fmt.Fprintf(w, "      %s\n", u.URL)
		}
	}
}

func renderView(w io.Writer, v client.View) {
	fmt.Fprintf(w, "== %s | %s ==\n", v.Connection, v.LastUpdate)
	renderDisasters(w, v.Disasters)
	for _, f := range v.SocialMedia {
		renderSocial(w, f)
	}
	for _, l := range v.Resources {
		renderResources(w, l)
	}
	for _, l := range v.OfficialUpdates {
		renderUpdates(w, l)
	}
}

func renderNotice(w io.Writer, n client.Notice) {
	if n.Err != nil && n.Level != client.Success {
		fmt.Fprintf(w, "%s: %s (%v)\n", strings.ToUpper(n.Level.String()), n.Message, n.Err)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", strings.ToUpper(n.Level.String()), n.Message)
}
