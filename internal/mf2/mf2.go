// Package mf2 extracts webmention interaction data from fetched HTML.
//
// Two strategies share one output shape: Tree walks the parsed
// document and understands nesting, property scoping and relative URL
// resolution; Regex is the permissive fallback used when the document
// does not survive tree parsing. The fallback is lossy by design: it
// only reports fields its patterns happen to match and never resolves
// URLs. Neither strategy fails; total extraction failure degrades to a
// plain mention with empty fields.
package mf2

import "github.com/bridgekit/mentiond/internal/domain"

// Extractor turns source HTML into a normalized interaction.
type Extractor interface {
	Extract(html []byte, sourceURL string) domain.Interaction
}

// Parser is the production extractor: tree strategy first, regex
// fallback when the tree cannot be built.
type Parser struct {
	tree     *TreeExtractor
	fallback *RegexExtractor
}

func NewParser() *Parser {
	return &Parser{
		tree:     NewTreeExtractor(),
		fallback: NewRegexExtractor(),
	}
}

func (p *Parser) Extract(html []byte, sourceURL string) domain.Interaction {
	interaction, ok := p.tree.extract(html, sourceURL)
	if ok {
		return interaction
	}
	return p.fallback.Extract(html, sourceURL)
}

// emptyInteraction is the degraded result for unusable documents.
func emptyInteraction() domain.Interaction {
	return domain.Interaction{
		Type:   domain.TypeMention,
		Author: domain.Author{},
	}
}

// detectType applies the fixed tie-break order: like beats repost
// beats reply beats bookmark; anything else is a mention.
func detectType(has func(prop string) bool) domain.MentionType {
	switch {
	case has("like-of"):
		return domain.TypeLike
	case has("repost-of"):
		return domain.TypeRepost
	case has("in-reply-to"):
		return domain.TypeReply
	case has("bookmark-of"):
		return domain.TypeBookmark
	}
	return domain.TypeMention
}
