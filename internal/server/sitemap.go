package server

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	nostress "github.com/PietroNarcisi/NostressAI"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// sectionPages are the listing pages always present in the sitemap.
var sectionPages = []string{"", "/blog", "/courses", "/resources"}

// detailPath maps a kind to the site path its documents live under.
// Resources have no detail page.
var detailPath = map[nostress.Kind]string{
	nostress.KindArticle: "/blog/",
	nostress.KindCourse:  "/courses/",
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap builds the sitemap for every published article and course.
func (s *Server) Sitemap(ctx context.Context) ([]byte, error) {
	base := strings.TrimRight(s.baseURL, "/")

	kinds := []nostress.Kind{nostress.KindArticle, nostress.KindCourse}
	lists := make([][]nostress.Summary, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			list, err := s.resolver.ListDocuments(gctx, kind)
			lists[i] = list
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := urlSet{XMLNS: sitemapNS}
	for _, p := range sectionPages {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + p})
	}
	for i, kind := range kinds {
		for _, doc := range lists[i] {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:     base + detailPath[kind] + url.PathEscape(doc.Slug),
				LastMod: doc.Date.UTC().Format("2006-01-02"),
			})
		}
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	data, err := s.Sitemap(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("writing sitemap", zap.Error(err))
	}
}
