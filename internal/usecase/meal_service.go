package usecase

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/mealsense/backend/internal/domain"
)

// MealServiceConfig holds configuration for the meal service
type MealServiceConfig struct {
	Classify ClassifyConfig
}

// MealService runs the full analyze pipeline: extraction, matching, portion
// resolution, nutrient computation and classification. All stages except the
// external extraction call are pure and stateless, so instances are safe for
// arbitrary request parallelism over the read-only catalog.
type MealService struct {
	catalog    domain.CatalogRepository
	extractor  domain.ExtractionClient
	matcher    *Matcher
	portions   *PortionResolver
	classifier *Classifier
}

// NewMealService creates a meal service with its dependencies.
func NewMealService(
	catalog domain.CatalogRepository,
	extractor domain.ExtractionClient,
	cfg MealServiceConfig,
) *MealService {
	return &MealService{
		catalog:    catalog,
		extractor:  extractor,
		matcher:    NewMatcher(catalog),
		portions:   NewPortionResolver(),
		classifier: NewClassifier(cfg.Classify),
	}
}

// Analyze turns a raw meal description into canonical items, nutrient totals
// and health tags. Per-item failures are isolated: an unmatched or malformed
// mention is dropped, never aborting the rest of the meal. Only input
// validation, extraction transport failures and storage failures abort the
// request.
func (s *MealService) Analyze(ctx context.Context, req *domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	if req == nil || !req.HasInput() {
		return nil, domain.ErrInvalidRequest
	}

	mentions, err := s.collectMentions(ctx, req)
	if err != nil {
		return nil, err
	}

	var (
		canonical []domain.CanonicalItem
		perItem   []domain.ItemNutrients
		seenIDs   = make(map[string]bool)
	)

	if req.SelectedFoodID != "" {
		entry, err := s.catalog.GetByID(ctx, req.SelectedFoodID)
		if err != nil {
			return nil, err
		}
		item, nutrients := s.resolveItem(entry, domain.ExtractedMention{Name: entry.Name})
		canonical = append(canonical, item)
		perItem = append(perItem, nutrients)
		seenIDs[entry.ID] = true
	}

	for _, mention := range mentions {
		entry, err := s.matcher.Match(ctx, mention.Name)
		if err != nil {
			if errors.Is(err, domain.ErrFoodNotFound) {
				// Best effort: a miss drops the mention, not the meal.
				log.Printf("[MEAL] no catalog match for %q, dropping", mention.Name)
				continue
			}
			return nil, err
		}
		if seenIDs[entry.ID] {
			log.Printf("[MEAL] %q resolved to already-included %s, skipping", mention.Name, entry.ID)
			continue
		}
		seenIDs[entry.ID] = true

		item, nutrients := s.resolveItem(entry, mention)
		canonical = append(canonical, item)
		perItem = append(perItem, nutrients)
	}

	resp := &domain.AnalyzeResponse{
		Canonical: canonical,
		Nutrients: domain.MealNutrients{PerItem: perItem},
	}
	if len(perItem) == 0 {
		return resp, nil
	}

	resp.Nutrients.Total = AggregateTotals(perItem)
	resp.Tags = s.classifier.Classify(resp.Nutrients.Total)
	resp.Tips = TipsFor(resp.Tags)
	return resp, nil
}

// resolveItem builds the canonical item for a matched entry and computes its
// nutrient contribution.
func (s *MealService) resolveItem(entry *domain.FoodEntry, mention domain.ExtractedMention) (domain.CanonicalItem, domain.ItemNutrients) {
	portion := s.portions.Resolve(entry, mention.PortionText)

	item := domain.CanonicalItem{
		FoodID:       entry.ID,
		DisplayName:  entry.Name,
		PortionGrams: portion.Grams,
		VolumeMl:     portion.Ml,
		Quantity:     portion.Quantity,
		Modifiers:    appliedModifiers(entry, mention.Modifiers),
		PortionText:  mention.PortionText,
	}

	nutrients := domain.ItemNutrients{
		ID:          entry.ID,
		DisplayName: entry.Name,
		VolumeMl:    portion.Ml,
		Nutrients:   ComputeNutrients(entry, &item),
	}
	return item, nutrients
}

// appliedModifiers keeps only the mention modifiers that the entry actually
// defines an effect for, in the order they were mentioned.
func appliedModifiers(entry *domain.FoodEntry, modifiers []string) []string {
	var applied []string
	for _, key := range modifiers {
		if _, ok := lookupModifier(entry.Modifiers, key); ok {
			applied = append(applied, key)
		}
	}
	return applied
}

// collectMentions produces the mention list for the request. With
// skipExtraction the text itself is treated as a delimited food list;
// otherwise the external extraction service is consulted. A transport failure
// there propagates; unparsable content degrades to an empty list.
func (s *MealService) collectMentions(ctx context.Context, req *domain.AnalyzeRequest) ([]domain.ExtractedMention, error) {
	if req.Text == "" && req.ImageBase64 == "" && req.ImageURL == "" {
		return nil, nil
	}

	if req.SkipExtraction && req.Text != "" {
		return splitTextMentions(req.Text), nil
	}

	raw, err := s.extractor.Extract(ctx, domain.ExtractionInput{
		Text:        req.Text,
		ImageBase64: req.ImageBase64,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return nil, err
	}
	return NormalizeExtraction(raw), nil
}

// splitTextMentions splits pre-extracted text on commas, semicolons and
// newlines into bare mentions.
func splitTextMentions(text string) []domain.ExtractedMention {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	var mentions []domain.ExtractedMention
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			mentions = append(mentions, domain.ExtractedMention{Name: name})
		}
	}
	return dedupeMentions(mentions)
}
