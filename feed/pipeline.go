// Package feed turns a user profile into an ordered feed of try-on entries.
//
// A run validates the profile, asks the bridge for outfit candidates once and
// then composes one entry per candidate, strictly one at a time. Only a
// missing base photo or an empty discovery abort the run; a failed generation
// degrades that single entry to its reference image.
package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raushankrgupta/fitscroll/logging"
	"github.com/raushankrgupta/fitscroll/models"
	"github.com/raushankrgupta/fitscroll/tryon"
)

var (
	ErrMissingBasePhoto = errors.New("profile has no base photo")
	ErrNoCandidates     = errors.New("no outfit candidates found")
)

// User-facing messages for the two run failures
const (
	MsgMissingBasePhoto = "Add a selfie to your profile before generating your feed."
	MsgNoCandidates     = "We couldn't find outfits for your style keywords. Try again or adjust your keywords."
)

const (
	discoverFraction = 0.05
	composeOffset    = 0.1
	likeBaselineMin  = 40
	likeBaselineMax  = 400
)

// SourceFetcher discovers outfit candidates
type SourceFetcher interface {
	Fetch(ctx context.Context, keywords []string, limit int, forceRefresh bool) []models.OutfitCandidate
}

// Composer generates a try-on image and returns its locator
type Composer interface {
	GenerateTryOn(ctx context.Context, req tryon.Request) (string, error)
}

// ProgressFunc receives every progress update of a run
type ProgressFunc func(models.PipelineProgress)

// Config holds the fixed parameters of a pipeline
type Config struct {
	FetchLimit      int
	DefaultKeywords []string
}

// Pipeline runs feed generations. It keeps no state between runs.
type Pipeline struct {
	sources  SourceFetcher
	composer Composer
	cfg      Config
	logger   logging.Logger

	now      func() time.Time
	newID    func() string
	baseline func() int
}

func NewPipeline(sources SourceFetcher, composer Composer, cfg Config, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 12
	}
	return &Pipeline{
		sources:  sources,
		composer: composer,
		cfg:      cfg,
		logger:   logger.With("component", "feed"),
		now:      time.Now,
		newID:    uuid.NewString,
		baseline: func() int { return likeBaselineMin + rand.IntN(likeBaselineMax-likeBaselineMin) },
	}
}

// outcome of one candidate: a generated image, or the reference image as fallback
type outcome struct {
	generated string
	fallback  string
}

func (o outcome) images() []string {
	if o.generated != "" {
		return []string{o.generated, o.fallback}
	}
	return []string{o.fallback}
}

// Run generates one feed entry per discovered candidate, in discovery order.
// It returns ErrMissingBasePhoto or ErrNoCandidates when the run cannot start.
func (p *Pipeline) Run(ctx context.Context, profile models.UserProfile, onProgress ProgressFunc) ([]models.FeedEntry, error) {
	report := func(pr models.PipelineProgress) {
		if onProgress != nil {
			onProgress(pr)
		}
	}

	report(models.PipelineProgress{Stage: models.StageValidating})
	if !profile.HasBasePhoto() {
		p.logger.Warn(ctx, "feed run aborted", "reason", "missing base photo")
		report(models.PipelineProgress{Stage: models.StageFailed, Error: MsgMissingBasePhoto})
		return nil, ErrMissingBasePhoto
	}

	keywords := searchKeywords(profile.Keywords, p.cfg.DefaultKeywords)
	report(models.PipelineProgress{Stage: models.StageDiscovering, Fraction: discoverFraction})
	candidates := p.sources.Fetch(ctx, keywords, p.cfg.FetchLimit, true)
	if len(candidates) == 0 {
		p.logger.Warn(ctx, "feed run aborted", "reason", "no candidates", "keywords", strings.Join(keywords, ","))
		report(models.PipelineProgress{Stage: models.StageFailed, Fraction: discoverFraction, Error: MsgNoCandidates})
		return nil, ErrNoCandidates
	}

	total := len(candidates)
	report(models.PipelineProgress{Stage: models.StageComposing, Fraction: composeOffset, Total: total})

	entries := make([]models.FeedEntry, 0, total)
	generated := 0
	for i, cand := range candidates {
		out := p.compose(ctx, profile, cand, i)
		if out.generated != "" {
			generated++
		}
		entries = append(entries, p.newEntry(cand, out))

		done := i + 1
		report(models.PipelineProgress{
			Stage:     models.StageComposing,
			Fraction:  composeFraction(done, total),
			Completed: done,
			Total:     total,
			Preview:   out.images()[0],
		})
	}

	p.logger.Info(ctx, "feed generated", "generated", generated, "total", total)
	report(models.PipelineProgress{Stage: models.StageDone, Fraction: 1, Completed: total, Total: total})
	return entries, nil
}

// compose never fails: errors and panics of one candidate fall back to its reference image
func (p *Pipeline) compose(ctx context.Context, profile models.UserProfile, cand models.OutfitCandidate, index int) (out outcome) {
	reference := cand.ReferenceImage()
	out = outcome{fallback: reference}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(ctx, "candidate generation panicked", "index", index, "panic", fmt.Sprint(r))
			out = outcome{fallback: reference}
		}
	}()

	locator, err := p.composer.GenerateTryOn(ctx, tryon.Request{
		BasePhoto:      profile.BasePhoto,
		ReferenceImage: reference,
		Caption:        cand.Caption,
		Gender:         profile.Gender,
		StyleHint:      SelectStyle(profile.StyleTags, cand.Caption),
	})
	if err != nil {
		reason := "generation failed"
		if errors.Is(err, tryon.ErrNoImage) {
			reason = "no image in response"
		}
		p.logger.Warn(ctx, "using reference image", "index", index, "reason", reason, "error", err)
		return out
	}
	out.generated = locator
	return out
}

func (p *Pipeline) newEntry(cand models.OutfitCandidate, out outcome) models.FeedEntry {
	products := make([]models.Product, len(cand.Products))
	copy(products, cand.Products)
	return models.FeedEntry{
		ID:          p.newID(),
		Images:      out.images(),
		Caption:     cand.Caption,
		Products:    products,
		Likes:       p.baseline(),
		Comments:    []models.Comment{},
		AIGenerated: out.generated != "",
		CreatedAt:   p.now(),
	}
}

// composeFraction is strictly increasing in done and reaches 1 only when done == total
func composeFraction(done, total int) float64 {
	if total <= 0 || done >= total {
		return 1
	}
	return composeOffset + (1-composeOffset)*float64(done)/float64(total)
}

// SelectStyle picks the first tag, in tag order, that occurs in the caption ignoring case.
// Without a match it falls back to the first non-blank tag. Blank tags are ignored
// throughout, so no usable tags means no hint.
func SelectStyle(tags []string, caption string) string {
	lower := strings.ToLower(caption)
	fallback := ""
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if strings.Contains(lower, t) {
			return tag
		}
		if fallback == "" {
			fallback = tag
		}
	}
	return fallback
}

func searchKeywords(keywords, defaults []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}
