package schema

import (
	"sort"
	"strings"

	"github.com/ashwinsharma89/adlens/internal/errs"
	"github.com/ashwinsharma89/adlens/internal/models"
)

// Catalog enumerates the dimensions and base-metric columns present in the
// currently loaded dataset, with distinct values per dimension. Built once
// at load time and immutable afterwards; a dataset reload builds a fresh
// catalog alongside the new snapshot.
type Catalog struct {
	dims      []string
	mets      []string
	distinct  map[string][]string
	dimLookup map[string]string            // normalized -> canonical
	valLookup map[string]map[string]string // dim -> normalized value -> canonical
}

// Build introspects the rows in a single pass.
func Build(rows []models.CampaignRecord) *Catalog {
	c := &Catalog{
		distinct:  map[string][]string{},
		dimLookup: map[string]string{},
		valLookup: map[string]map[string]string{},
	}
	dimSet := map[string]map[string]bool{}
	metSet := map[string]bool{}
	for _, r := range rows {
		for d, v := range r.Dims {
			if dimSet[d] == nil {
				dimSet[d] = map[string]bool{}
			}
			dimSet[d][v] = true
		}
		for m := range r.Bases {
			metSet[m] = true
		}
	}
	for d, vals := range dimSet {
		c.dims = append(c.dims, d)
		c.dimLookup[norm(d)] = d
		// singular/plural tolerance for "by channels" style phrasing
		c.dimLookup[strings.TrimSuffix(norm(d), "s")] = d
		c.valLookup[d] = map[string]string{}
		for v := range vals {
			c.distinct[d] = append(c.distinct[d], v)
			c.valLookup[d][norm(v)] = v
		}
		sort.Strings(c.distinct[d])
	}
	sort.Strings(c.dims)
	for m := range metSet {
		c.mets = append(c.mets, m)
	}
	sort.Strings(c.mets)
	return c
}

// Dimensions returns dimension names, sorted.
func (c *Catalog) Dimensions() []string { return append([]string(nil), c.dims...) }

// Metrics returns base-metric column names, sorted.
func (c *Catalog) Metrics() []string { return append([]string(nil), c.mets...) }

// DistinctValues returns the ordered values of a dimension.
func (c *Catalog) DistinctValues(dimension string) ([]string, error) {
	canon, err := c.ResolveDimension(dimension)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.distinct[canon]...), nil
}

// ResolveDimension maps a user token to a canonical dimension name,
// tolerating plural forms ("platforms" finds Platform).
func (c *Catalog) ResolveDimension(token string) (string, error) {
	if canon, ok := c.dimLookup[norm(token)]; ok {
		return canon, nil
	}
	if canon, ok := c.dimLookup[strings.TrimSuffix(norm(token), "s")]; ok {
		return canon, nil
	}
	// "campaign" should find "Campaign_Name" and similar compound columns
	t := strings.ReplaceAll(norm(token), " ", "_")
	for _, d := range c.dims {
		if strings.Contains(norm(d), t) {
			return d, nil
		}
	}
	return "", errs.UnknownDimension(token, c.dims)
}

// ResolveValue validates that a filter value occurs in a dimension and
// returns its canonical spelling.
func (c *Catalog) ResolveValue(dimension, token string) (string, error) {
	canon, err := c.ResolveDimension(dimension)
	if err != nil {
		return "", err
	}
	if v, ok := c.valLookup[canon][norm(token)]; ok {
		return v, nil
	}
	return "", errs.UnknownFilterValue(canon, token, c.distinct[canon])
}

// FindValue searches every dimension for a value matching the token.
// Used by the intent resolver for bare filter mentions like "for google".
func (c *Catalog) FindValue(token string) (dim, value string, ok bool) {
	for _, d := range c.dims {
		if v, found := c.valLookup[d][norm(token)]; found {
			return d, v, true
		}
	}
	return "", "", false
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
