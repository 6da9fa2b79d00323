// Package decorator rewrites @mention links in cooked post HTML so they show
// the mentioned user's full name, and reverts that rewrite for quoting.
package decorator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"shownames/internal/config"
	"shownames/internal/resolver"
)

// Markup written to and read from decorated mentions
const (
	ClassMention          = "mention"
	ClassMentionGroup     = "mention-group"
	ClassMentionFullname  = "mention-fullname"
	ClassDecorated        = "discourse-show-name-mentions"
	AttrOriginalMention   = "data-original-mention"
	mentionElementTagName = "a"
)

// MentionResolver resolves a raw mention to a full name, "" when it has none
type MentionResolver interface {
	Resolve(ctx context.Context, mention string, source *resolver.SourceModel) (string, error)
}

// Options configures a Decorator
type Options struct {
	Enabled       bool
	IncludeGroups bool
	Template      string
	Logger        zerolog.Logger
}

// Decorator rewrites mention elements
type Decorator struct {
	resolver      MentionResolver
	enabled       bool
	includeGroups bool
	template      string
	logger        zerolog.Logger
}

// New creates a Decorator
func New(r MentionResolver, opts Options) *Decorator {
	return &Decorator{
		resolver:      r,
		enabled:       opts.Enabled,
		includeGroups: opts.IncludeGroups,
		template:      opts.Template,
		logger:        opts.Logger.With().Str("component", "decorator").Logger(),
	}
}

// NewFromConfig creates a Decorator from config
func NewFromConfig(cfg *config.Config, r MentionResolver, logger zerolog.Logger) *Decorator {
	return New(r, Options{
		Enabled:       cfg.IsMentionNamesEnabled(),
		IncludeGroups: cfg.ShowFullnameForGroups,
		Template:      cfg.RenderTemplate,
		Logger:        logger,
	})
}

// Enabled returns true if mentions are rewritten at all
func (d *Decorator) Enabled() bool {
	return d.enabled
}

// isMention returns true if n is a mention marker this decorator handles
func (d *Decorator) isMention(n *html.Node) bool {
	if n.Data != mentionElementTagName {
		return false
	}
	return hasClass(n, ClassMention) || (d.includeGroups && hasClass(n, ClassMentionGroup))
}

// Result describes one decorate pass
type Result struct {
	Cooked    string
	Mentions  int
	Decorated int
	Failed    int // mentions whose lookup returned an error
}

// Decorate rewrites every unprocessed mention in cooked whose username
// resolves to a full name. Mentions that fail to resolve keep their text.
func (d *Decorator) Decorate(ctx context.Context, cooked string, source *resolver.SourceModel) (string, error) {
	result, err := d.DecorateResult(ctx, cooked, source)
	if err != nil {
		return "", err
	}
	return result.Cooked, nil
}

// DecorateResult is Decorate with per-pass counts. All mentions of one post
// are resolved concurrently so they share a batch.
func (d *Decorator) DecorateResult(ctx context.Context, cooked string, source *resolver.SourceModel) (Result, error) {
	if !d.enabled {
		return Result{Cooked: cooked}, nil
	}

	nodes, err := parseFragment(cooked)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse cooked html: %w", err)
	}

	var mentions []*html.Node
	walk(nodes, func(n *html.Node) {
		if !d.isMention(n) {
			return
		}
		if _, done := getAttr(n, AttrOriginalMention); done {
			return
		}
		mentions = append(mentions, n)
	})
	if len(mentions) == 0 {
		return Result{Cooked: cooked}, nil
	}

	texts := make([]string, len(mentions))
	names := make([]string, len(mentions))
	failed := make([]bool, len(mentions))
	for i, n := range mentions {
		texts[i] = innerText(n)
	}

	var g errgroup.Group
	for i := range mentions {
		g.Go(func() error {
			name, err := d.resolver.Resolve(ctx, texts[i], source)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				d.logger.Warn().Err(err).Str("mention", texts[i]).Msg("failed to resolve mention")
				failed[i] = true
				return nil
			}
			names[i] = name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	result := Result{Cooked: cooked, Mentions: len(mentions)}
	for i, n := range mentions {
		if failed[i] {
			result.Failed++
			continue
		}
		if names[i] == "" {
			continue
		}
		setAttr(n, AttrOriginalMention, texts[i])
		setText(n, RenderMention(d.template, names[i], resolver.OriginalUsername(texts[i])))
		addClasses(n, ClassMentionFullname, ClassDecorated)
		result.Decorated++
	}

	d.logger.Debug().
		Int("mentions", result.Mentions).
		Int("decorated", result.Decorated).
		Int("failed", result.Failed).
		Msg("decorated post")

	if result.Decorated == 0 {
		return result, nil
	}
	result.Cooked, err = renderFragment(nodes)
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// Restore puts the original mention text back into every decorated mention,
// e.g. before converting a post to markdown for quoting.
func Restore(cooked string) (string, error) {
	nodes, err := parseFragment(cooked)
	if err != nil {
		return "", fmt.Errorf("failed to parse cooked html: %w", err)
	}

	restored := 0
	walk(nodes, func(n *html.Node) {
		original, ok := getAttr(n, AttrOriginalMention)
		if !ok || !hasClass(n, ClassDecorated) {
			return
		}
		setText(n, original)
		removeAttr(n, AttrOriginalMention)
		removeClasses(n, ClassMentionFullname, ClassDecorated)
		restored++
	})

	if restored == 0 {
		return cooked, nil
	}
	return renderFragment(nodes)
}

// CardUsername returns the username a user card should open for a mention
// element: the original mention if it was decorated, its text otherwise.
func CardUsername(n *html.Node) string {
	if original, ok := getAttr(n, AttrOriginalMention); ok && original != "" {
		return resolver.OriginalUsername(original)
	}
	return resolver.OriginalUsername(innerText(n))
}

// CardUsernames lists the user card targets of all mentions in cooked, in
// document order.
func (d *Decorator) CardUsernames(cooked string) ([]string, error) {
	nodes, err := parseFragment(cooked)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cooked html: %w", err)
	}

	usernames := make([]string, 0)
	walk(nodes, func(n *html.Node) {
		if d.isMention(n) {
			usernames = append(usernames, CardUsername(n))
		}
	})
	return usernames, nil
}
