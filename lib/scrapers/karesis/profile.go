package karesis

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"karesis-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

// Profile is the normalized view of the "Personal Details" table on the
// portal home page. Fields the page didn't render come back nil.
type Profile struct {
	RegisterNo      *string `json:"register_no"`
	Name            *string `json:"name"`
	DegreeProgramme *string `json:"degree_programme"`
	Batch           *string `json:"batch"`
	Section         *string `json:"section"`
	FacultyAdvisor  *string `json:"faculty_advisor"`
	Dob             *string `json:"dob"`
	Gender          *string `json:"gender"`
	Address         *string `json:"address"`
}

// ProfileResult carries the normalized profile alongside the raw scraped
// key/value table, the raw map is kept for fields the portal adds later.
type ProfileResult struct {
	Profile Profile           `json:"profile"`
	Raw     map[string]string `json:"raw"`
}

func (c *Client) Profile(ctx context.Context) (ProfileResult, error) {
	ctx, span := tracer.Start(ctx, "client:Profile")
	defer span.End()

	base, err := c.requireBase()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ProfileResult{}, err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(base + "/")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch portal home")
		return ProfileResult{}, err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "bad status on portal home")
		return ProfileResult{}, fmt.Errorf("%w: portal home returned %d", ErrBadStatus, res.StatusCode())
	}

	return ParseProfile(res.String())
}

// ParseProfile extracts the "Personal Details" table from the portal home
// page. It is a pure function of the page contents so it can be exercised
// against fixture html.
func ParseProfile(pageHtml string) (ProfileResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHtml))
	if err != nil {
		return ProfileResult{}, err
	}

	raw := map[string]string{}
	doc.Find("h2, h3, h4, h5").Each(func(_ int, heading *goquery.Selection) {
		if !strings.Contains(heading.Text(), "Personal Details") {
			return
		}
		for _, node := range heading.Nodes {
			table := nextTable(node)
			if table == nil {
				continue
			}
			collectTableRows(table, raw)
		}
	})

	return ProfileResult{
		Profile: Profile{
			RegisterNo:      rawField(raw, "Register Number"),
			Name:            rawField(raw, "Name of the Student"),
			DegreeProgramme: rawField(raw, "Degree / Programme"),
			Batch:           rawField(raw, "Batch"),
			Section:         rawField(raw, "Section"),
			FacultyAdvisor:  rawField(raw, "Faculty Advisor"),
			Dob:             rawField(raw, "Date of birth"),
			Gender:          rawField(raw, "Gender"),
			Address:         rawField(raw, "Address"),
		},
		Raw: raw,
	}, nil
}

func rawField(raw map[string]string, key string) *string {
	if v, ok := raw[key]; ok {
		return &v
	}
	return nil
}

// nextTable finds the first <table> after `node` in document order,
// skipping the node's own subtree.
func nextTable(node *html.Node) *html.Node {
	cur := skipSubtree(node)
	for cur != nil {
		if cur.Type == html.ElementNode && cur.Data == "table" {
			return cur
		}
		cur = nextInDocument(cur)
	}
	return nil
}

func nextInDocument(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	return skipSubtree(n)
}

func skipSubtree(n *html.Node) *html.Node {
	for n != nil {
		if n.NextSibling != nil {
			return n.NextSibling
		}
		n = n.Parent
	}
	return nil
}

// collectTableRows pulls two-cell rows out of a table as key/value pairs,
// rows with any other cell count are ignored.
func collectTableRows(table *html.Node, out map[string]string) {
	for _, row := range findElements(table, "tr") {
		cells := findElements(row, "td", "th")
		if len(cells) != 2 {
			continue
		}
		key := htmlutil.CleanText(htmlutil.GetText(cells[0]))
		value := htmlutil.CleanText(htmlutil.GetText(cells[1]))
		out[key] = value
	}
}

func findElements(root *html.Node, names ...string) []*html.Node {
	var found []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, name := range names {
				if n.Data == name {
					found = append(found, n)
					return
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		walk(child)
	}
	return found
}
