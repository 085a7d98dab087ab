// Package catalog holds the festival's static event table.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/overdrive/techfest/internal/models"
)

//go:embed events.yaml
var defaultEvents []byte

// ErrNotFound is returned by lookups for an unknown slug or title.
var ErrNotFound = errors.New("event not found")

type Catalog struct {
	festival Festival
	schedule []ScheduleDay
	socials  []Link
	esports  Esports
	hack     Hackathon
	credits  Credits
	events   []models.EventDefinition
	bySlug   map[string]int
	byTitle  map[string]int
}

// Festival is the header information shown on the home page.
type Festival struct {
	Name     string    `yaml:"name"`
	StartsAt time.Time `yaml:"startsAt"`
	About    About     `yaml:"about"`
}

type About struct {
	Heading    string      `yaml:"heading"`
	Paragraphs []string    `yaml:"paragraphs"`
	Highlights []Highlight `yaml:"highlights"`
}

type Highlight struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

// Link is an outbound link such as a social profile.
type Link struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Label string `yaml:"label"`
}

// Esports is the gaming showcase: a tagline plus the headline prize per event slug.
type Esports struct {
	Tagline string            `yaml:"tagline"`
	Prizes  map[string]string `yaml:"prizes"`
}

// Hackathon describes the showcased hackathon event and its rounds.
type Hackathon struct {
	Event   string  `yaml:"event"`
	Tagline string  `yaml:"tagline"`
	Details string  `yaml:"details"`
	Rounds  []Round `yaml:"rounds"`
}

type Round struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

// Credits is the people behind the site, shown on /credits.
type Credits struct {
	Role     string `yaml:"role"`
	Name     string `yaml:"name"`
	Subtitle string `yaml:"subtitle"`
	Email    string `yaml:"email"`
	Links    []Link `yaml:"links"`
	Footnote string `yaml:"footnote"`
}

// Showcase pairs a gaming event with its headline prize.
type Showcase struct {
	Event models.EventDefinition
	Prize string
}

// ScheduleDay is one day of the published programme.
type ScheduleDay struct {
	Day   string   `yaml:"day"`
	Date  string   `yaml:"date"`
	Items []string `yaml:"items"`
}

// Group is one category section of the listing page.
type Group struct {
	Category models.Category
	Events   []models.EventDefinition
}

type document struct {
	Festival  Festival                 `yaml:"festival"`
	Schedule  []ScheduleDay            `yaml:"schedule"`
	Socials   []Link                   `yaml:"socials"`
	Esports   Esports                  `yaml:"esports"`
	Hackathon Hackathon                `yaml:"hackathon"`
	Credits   Credits                  `yaml:"credits"`
	Events    []models.EventDefinition `yaml:"events"`
}

// Default returns the embedded catalog. It panics if the embedded file is broken.
func Default() *Catalog {
	c, err := Parse(defaultEvents)
	if err != nil {
		panic("catalog: embedded events.yaml: " + err.Error())
	}
	return c
}

// Load reads the catalog from path, or the embedded table when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultEvents)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and checks a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Events) == 0 {
		return nil, errors.New("catalog has no events")
	}

	c := &Catalog{
		festival: doc.Festival,
		schedule: doc.Schedule,
		socials:  doc.Socials,
		esports:  doc.Esports,
		hack:     doc.Hackathon,
		credits:  doc.Credits,
		events:   doc.Events,
		bySlug:   make(map[string]int, len(doc.Events)),
		byTitle:  make(map[string]int, len(doc.Events)),
	}
	ids := make(map[string]bool, len(doc.Events))
	for i, ev := range doc.Events {
		if err := check(ev); err != nil {
			return nil, fmt.Errorf("event #%d (%q): %w", i, ev.Slug, err)
		}
		if ids[ev.ID] {
			return nil, fmt.Errorf("duplicate event id %q", ev.ID)
		}
		if _, dup := c.bySlug[ev.Slug]; dup {
			return nil, fmt.Errorf("duplicate event slug %q", ev.Slug)
		}
		if _, dup := c.byTitle[ev.Title]; dup {
			return nil, fmt.Errorf("duplicate event title %q", ev.Title)
		}
		ids[ev.ID] = true
		c.bySlug[ev.Slug] = i
		c.byTitle[ev.Title] = i
	}

	for slug := range doc.Esports.Prizes {
		if _, ok := c.bySlug[slug]; !ok {
			return nil, fmt.Errorf("esports prize for unknown event %q", slug)
		}
	}
	if slug := doc.Hackathon.Event; slug != "" {
		if _, ok := c.bySlug[slug]; !ok {
			return nil, fmt.Errorf("hackathon names unknown event %q", slug)
		}
	}
	links := append(append([]Link(nil), doc.Socials...), doc.Credits.Links...)
	for _, l := range links {
		if err := checkLink(l); err != nil {
			return nil, fmt.Errorf("link %q: %w", l.Name, err)
		}
	}
	return c, nil
}

func checkLink(l Link) error {
	if l.Name == "" {
		return errors.New("missing name")
	}
	u, err := url.Parse(l.URL)
	if err != nil {
		return err
	}
	if u.Scheme != "https" && u.Scheme != "http" || u.Host == "" {
		return errors.New("url must be absolute http(s)")
	}
	return nil
}

func check(ev models.EventDefinition) error {
	switch {
	case ev.ID == "":
		return errors.New("missing id")
	case ev.Slug == "" || strings.ContainsAny(ev.Slug, " /?#%"):
		return errors.New("slug must be non-empty and URL-safe")
	case ev.Title == "":
		return errors.New("missing title")
	case ev.EntryFee < 0:
		return errors.New("entry fee must not be negative")
	case ev.TeamSize.Min < 1:
		return errors.New("teamSize.min must be at least 1")
	case ev.TeamSize.Min > ev.TeamSize.Max:
		return errors.New("teamSize.min exceeds teamSize.max")
	case !ev.Category.Valid():
		return fmt.Errorf("unknown category %q", ev.Category)
	}
	return nil
}

func (c *Catalog) Festival() Festival { return c.festival }

// Schedule returns the programme; it may be empty.
func (c *Catalog) Schedule() []ScheduleDay {
	out := make([]ScheduleDay, len(c.schedule))
	copy(out, c.schedule)
	return out
}

// Socials are the footer links.
func (c *Catalog) Socials() []Link {
	return append([]Link(nil), c.socials...)
}

func (c *Catalog) Credits() Credits { return c.credits }

// Esports lists the gaming events in declaration order, each with its prize
// when one is configured.
func (c *Catalog) Esports() (string, []Showcase) {
	var out []Showcase
	for _, ev := range c.events {
		if ev.Category == models.CategoryGaming {
			out = append(out, Showcase{Event: ev, Prize: c.esports.Prizes[ev.Slug]})
		}
	}
	return c.esports.Tagline, out
}

// Hackathon returns the showcase and its event. ok is false when none is configured.
func (c *Catalog) Hackathon() (h Hackathon, ev models.EventDefinition, ok bool) {
	i, found := c.bySlug[c.hack.Event]
	if !found {
		return Hackathon{}, models.EventDefinition{}, false
	}
	return c.hack, c.events[i], true
}

// List returns every event in declaration order. The slice is a copy.
func (c *Catalog) List() []models.EventDefinition {
	out := make([]models.EventDefinition, len(c.events))
	copy(out, c.events)
	return out
}

func (c *Catalog) GetBySlug(slug string) (models.EventDefinition, error) {
	i, ok := c.bySlug[slug]
	if !ok {
		return models.EventDefinition{}, fmt.Errorf("%w: slug %q", ErrNotFound, slug)
	}
	return c.events[i], nil
}

// GetByTitle serves legacy links that reference an event by its display title.
func (c *Catalog) GetByTitle(title string) (models.EventDefinition, error) {
	i, ok := c.byTitle[strings.TrimSpace(title)]
	if !ok {
		return models.EventDefinition{}, fmt.Errorf("%w: title %q", ErrNotFound, title)
	}
	return c.events[i], nil
}

// ByCategory groups events for the listing, skipping empty categories.
func (c *Catalog) ByCategory() []Group {
	var out []Group
	for _, cat := range models.Categories {
		g := Group{Category: cat}
		for _, ev := range c.events {
			if ev.Category == cat {
				g.Events = append(g.Events, ev)
			}
		}
		if len(g.Events) > 0 {
			out = append(out, g)
		}
	}
	return out
}
