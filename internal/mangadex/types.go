package mangadex

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Title is a manga returned by search.
type Title struct {
	ID          string
	Name        string
	Description string
	Status      string
	Demographic string
	Year        int
}

// Chapter is one readable chapter of a title.
type Chapter struct {
	ID       string
	Volume   string
	Number   string
	Title    string
	Language string
	Pages    int
}

// Label is the chapter's line in the chapter list.
func (c Chapter) Label() string {
	var parts []string
	if c.Volume != "" {
		parts = append(parts, "Vol. "+c.Volume)
	}
	if c.Number != "" {
		parts = append(parts, "Ch. "+c.Number)
	}
	label := strings.Join(parts, " ")
	switch {
	case label == "" && c.Title == "":
		label = "Oneshot"
	case label == "":
		label = c.Title
	case c.Title != "":
		label += ": " + c.Title
	}
	return fmt.Sprintf("%s (%d pages)", label, c.Pages)
}

// Manifest locates the page images of a chapter on a delivery node.
type Manifest struct {
	BaseURL   string
	Hash      string
	Data      []string
	DataSaver []string
}

// Len returns the page count for the chosen quality.
func (m Manifest) Len(dataSaver bool) int {
	return len(m.files(dataSaver))
}

// PageURL returns the URL of page i.
func (m Manifest) PageURL(i int, dataSaver bool) string {
	files := m.files(dataSaver)
	if i < 0 || i >= len(files) {
		return ""
	}
	return m.pageURL(files[i], dataSaver)
}

// PageURLs returns every page URL in reading order.
func (m Manifest) PageURLs(dataSaver bool) []string {
	return lo.Map(m.files(dataSaver), func(name string, _ int) string {
		return m.pageURL(name, dataSaver)
	})
}

func (m Manifest) files(dataSaver bool) []string {
	if dataSaver && len(m.DataSaver) > 0 {
		return m.DataSaver
	}
	return m.Data
}

func (m Manifest) pageURL(name string, dataSaver bool) string {
	quality := "data"
	if dataSaver && len(m.DataSaver) > 0 {
		quality = "data-saver"
	}
	return strings.TrimRight(m.BaseURL, "/") + "/" + quality + "/" + m.Hash + "/" + name
}

type searchResponse struct {
	Result string      `json:"result"`
	Data   []mangaData `json:"data"`
	Total  int         `json:"total"`
}

type mangaData struct {
	ID         string `json:"id"`
	Attributes struct {
		Title       map[string]string   `json:"title"`
		AltTitles   []map[string]string `json:"altTitles"`
		Description map[string]string   `json:"description"`
		Status      string              `json:"status"`
		Demographic string              `json:"publicationDemographic"`
		Year        int                 `json:"year"`
	} `json:"attributes"`
}

type feedResponse struct {
	Result string        `json:"result"`
	Data   []chapterData `json:"data"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Total  int           `json:"total"`
}

type chapterData struct {
	ID         string `json:"id"`
	Attributes struct {
		Volume             *string `json:"volume"`
		Chapter            *string `json:"chapter"`
		Title              *string `json:"title"`
		TranslatedLanguage string  `json:"translatedLanguage"`
		IsUnavailable      bool    `json:"isUnavailable"`
		Pages              *int    `json:"pages"`
	} `json:"attributes"`
}

type atHomeResponse struct {
	Result  string `json:"result"`
	BaseURL string `json:"baseUrl"`
	Chapter struct {
		Hash      string   `json:"hash"`
		Data      []string `json:"data"`
		DataSaver []string `json:"dataSaver"`
	} `json:"chapter"`
}
