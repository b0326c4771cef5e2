package notion

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

type parent struct {
	Type       string `json:"type,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

type pageRequest struct {
	Parent     *parent    `json:"parent,omitempty"`
	Properties Properties `json:"properties"`
}

// CreatePage adds a row to databaseID and returns the new page id.
func (c *Client) CreatePage(ctx context.Context, databaseID string, props Properties) (string, error) {
	if databaseID == "" {
		return "", errors.New("notion: database id is empty")
	}
	var page Page
	req := pageRequest{
		Parent:     &parent{DatabaseID: databaseID},
		Properties: props,
	}
	if err := c.do(ctx, http.MethodPost, "/pages", req, &page); err != nil {
		return "", err
	}
	return page.ID, nil
}

// UpdatePage patches the given properties of pageID.
func (c *Client) UpdatePage(ctx context.Context, pageID string, props Properties) (string, error) {
	if pageID == "" {
		return "", errors.New("notion: page id is empty")
	}
	var page Page
	if err := c.do(ctx, http.MethodPatch, "/pages/"+url.PathEscape(pageID), pageRequest{Properties: props}, &page); err != nil {
		return "", err
	}
	if page.ID == "" {
		page.ID = pageID
	}
	return page.ID, nil
}

// RenamePage sets the title of a standalone page (not a database row).
func (c *Client) RenamePage(ctx context.Context, pageID, title string) error {
	_, err := c.UpdatePage(ctx, pageID, Properties{"title": Title(title)})
	return err
}

// User is the integration's bot user.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Me returns the bot user for the token; it doubles as a credentials check.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &u)
	return u, err
}

// Database is a created database.
type Database struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type databaseRequest struct {
	Parent     parent         `json:"parent"`
	Icon       *icon          `json:"icon,omitempty"`
	Title      []textItem     `json:"title"`
	Properties map[string]any `json:"properties"`
}

type icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// CreateDatabase creates a database under parentPageID with the given schema.
func (c *Client) CreateDatabase(ctx context.Context, parentPageID, title, emoji string, schema Schema) (Database, error) {
	if parentPageID == "" {
		return Database{}, errors.New("notion: parent page id is empty")
	}
	req := databaseRequest{
		Parent:     parent{Type: "page_id", PageID: parentPageID},
		Title:      richText(title),
		Properties: schema.definition(),
	}
	if emoji != "" {
		req.Icon = &icon{Type: "emoji", Emoji: emoji}
	}
	var db Database
	if err := c.do(ctx, http.MethodPost, "/databases", req, &db); err != nil {
		return Database{}, err
	}
	return db, nil
}
