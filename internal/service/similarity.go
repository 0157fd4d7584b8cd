package service

import (
	"math"
	"sort"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"
)

const maxImageMatches = 5

// cosineSimilarity returns -1 for vectors that cannot be compared.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return -1
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return -1
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// rankMatches keeps the best image per product and sorts by similarity.
// Products whose best similarity is negative are dropped.
func rankMatches(query []float64, embeddings []model.ProductEmbedding, products map[string]*model.Product) []dto.ImageMatch {
	best := make(map[string]float64)
	for _, e := range embeddings {
		sim := cosineSimilarity(query, e.Vector)
		if cur, ok := best[e.ProductID]; !ok || sim > cur {
			best[e.ProductID] = sim
		}
	}

	matches := make([]dto.ImageMatch, 0, len(best))
	for id, sim := range best {
		if sim < 0 {
			continue
		}
		m := dto.ImageMatch{ProductID: id, Similarity: sim}
		if p := products[id]; p != nil {
			m.Name = p.Name
			m.Category = p.Category
		}
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ProductID < matches[j].ProductID
	})
	return matches
}

// selectMatches applies the strong-match threshold. When nothing clears it
// the closest suggestions are returned with found=false.
func selectMatches(matches []dto.ImageMatch, threshold float64) *dto.ImageSearchResponse {
	if len(matches) == 0 {
		return &dto.ImageSearchResponse{Found: false, Matches: []dto.ImageMatch{}, Message: "No similar products found."}
	}
	var strong []dto.ImageMatch
	for _, m := range matches {
		if m.Similarity >= threshold {
			strong = append(strong, m)
		}
	}
	if len(strong) == 0 {
		return &dto.ImageSearchResponse{
			Found:   false,
			Matches: matches[:min(len(matches), maxImageMatches)],
			Message: "No strong match, here are the closest suggestions.",
		}
	}
	return &dto.ImageSearchResponse{Found: true, Matches: strong[:min(len(strong), maxImageMatches)]}
}
