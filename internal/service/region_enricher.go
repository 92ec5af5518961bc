package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jobpulse/jobpulse/internal/core"
	"github.com/jobpulse/jobpulse/internal/detect"
	"github.com/jobpulse/jobpulse/internal/domain/model"
)

// locationRegions maps city and area keywords found in free-text locations
// to region codes. Matching is first-win over accent-normalized text, so
// more specific keywords must precede shorter ones that could shadow them.
var locationRegions = []struct {
	keyword string
	code    string
}{
	{"ile-de-france", "IDF"},
	{"ile de france", "IDF"},
	{"paris", "IDF"},
	{"versailles", "IDF"},
	{"boulogne-billancourt", "IDF"},
	{"nanterre", "IDF"},

	{"lyon", "ARA"},
	{"grenoble", "ARA"},
	{"saint-etienne", "ARA"},
	{"annecy", "ARA"},
	{"clermont-ferrand", "ARA"},

	{"aix-en-provence", "PAC"},
	{"marseille", "PAC"},
	{"nice", "PAC"},
	{"toulon", "PAC"},

	{"toulouse", "OCC"},
	{"montpellier", "OCC"},
	{"nimes", "OCC"},
	{"perpignan", "OCC"},

	{"bordeaux", "NAQ"},
	{"limoges", "NAQ"},
	{"poitiers", "NAQ"},
	{"pau", "NAQ"},
	{"la rochelle", "NAQ"},

	{"nantes", "PDL"},
	{"angers", "PDL"},
	{"le mans", "PDL"},

	{"rennes", "BRE"},
	{"brest", "BRE"},
	{"quimper", "BRE"},

	{"lille", "HDF"},
	{"amiens", "HDF"},
	{"roubaix", "HDF"},
	{"dunkerque", "HDF"},

	{"strasbourg", "GES"},
	{"nancy", "GES"},
	{"metz", "GES"},
	{"reims", "GES"},
	{"mulhouse", "GES"},

	{"dijon", "BFC"},
	{"besancon", "BFC"},

	{"rouen", "NOR"},
	{"caen", "NOR"},
	{"le havre", "NOR"},

	{"orleans", "CVL"},
	{"tours", "CVL"},

	{"ajaccio", "COR"},
	{"bastia", "COR"},

	{"la reunion", "REU"},
	{"guadeloupe", "GLP"},
	{"martinique", "MTQ"},
	{"guyane", "GUF"},
	{"mayotte", "MYT"},
}

// regionCodeForLocation maps a free-text location to a region code, or ""
// when no keyword matches.
func regionCodeForLocation(location string) string {
	if location == "" {
		return ""
	}
	normalized := detect.Normalize(location)
	for _, entry := range locationRegions {
		if strings.Contains(normalized, entry.keyword) {
			return entry.code
		}
	}
	return ""
}

// regionEnricher fills missing RegionID fields from location text.
// Lookups run concurrently with a bounded worker count; individual
// failures are logged and never fail the batch.
type regionEnricher struct {
	regions     core.RegionRepository
	concurrency int
}

func (e *regionEnricher) enrich(ctx context.Context, s *IngestService, jobs []model.Job) {
	if e.regions == nil {
		return
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range jobs {
		if jobs[i].RegionID != nil || jobs[i].Location == "" {
			continue
		}
		job := &jobs[i]
		g.Go(func() error {
			code := regionCodeForLocation(job.Location)
			if code == "" {
				return nil
			}
			region, err := e.regions.FindByCode(ctx, code)
			if err != nil {
				s.logger.WarnContext(ctx, "region lookup failed",
					"location", job.Location, "code", code, "error", err)
				return nil
			}
			if region != nil {
				job.RegionID = &region.ID
			}
			return nil
		})
	}
	_ = g.Wait()
}
