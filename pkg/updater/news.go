package updater

import (
	"fmt"
	"time"

	"github.com/grovetools/altsync/pkg/catalog"
	"github.com/grovetools/altsync/pkg/gh"
	"github.com/grovetools/altsync/pkg/release"
)

const (
	DefaultNewsCaption   = "New version of Aidoku just got released!"
	DefaultNewsTintColor = "ff375f"
)

// NewsIdentifier is the identifier of the news item announcing tag
func NewsIdentifier(tag string) string {
	return "release-" + release.FullVersion(tag)
}

func (u *Updater) addNews(doc *catalog.Document, r gh.Release) (bool, error) {
	id := NewsIdentifier(r.TagName)
	exists, err := doc.HasNews(id)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	caption := u.opts.News.Caption
	if caption == "" {
		caption = DefaultNewsCaption
	}
	tint := u.opts.News.TintColor
	if tint == "" {
		tint = DefaultNewsTintColor
	}

	item := catalog.NewsItem{
		AppID:      u.opts.BundleID,
		Caption:    caption,
		Date:       r.PublishedAt.UTC().Format(time.RFC3339),
		Identifier: id,
		Notify:     u.opts.News.Notify,
		TintColor:  tint,
		Title:      "v" + release.FullVersion(r.TagName),
		URL:        fmt.Sprintf("https://github.com/%s/releases/tag/%s", u.opts.Repository, r.TagName),
	}
	if err := doc.PrependNews(item); err != nil {
		return false, err
	}
	return true, nil
}
