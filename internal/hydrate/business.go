package hydrate

import (
	"github.com/plazasocial/plaza/internal/models"
)

// DeriveBusiness extracts the canonical place/business identity from a
// post's several legacy and current shapes. Fallback paths run in a
// fixed priority order, field by field: the top-level stamp, then the
// variant payload, then the legacy ref object, then the venue place,
// then the shared snapshot (one level deep). Pure, no I/O; fields no
// path can fill stay empty. Returns nil when nothing yields a value.
func DeriveBusiness(p *models.Post) *models.BusinessRef {
	if p == nil {
		return nil
	}

	sources := make([]*models.BusinessRef, 0, 5)
	if p.Business != nil {
		sources = append(sources, p.Business)
	}
	if stamp := p.Details.BusinessStamp(); stamp != nil {
		sources = append(sources, stamp)
	}
	if p.RefBusiness != nil {
		sources = append(sources, p.RefBusiness)
	}
	if p.Venue != nil && p.Venue.Place != nil {
		sources = append(sources, &models.BusinessRef{
			PlaceID: p.Venue.Place.PlaceID,
			Name:    p.Venue.Place.Name,
		})
	}
	if p.Shared != nil && p.Shared.Snapshot != nil {
		if snap := DeriveBusiness(p.Shared.Snapshot); snap != nil {
			sources = append(sources, snap)
		}
	}

	var out models.BusinessRef
	for _, src := range sources {
		if out.PlaceID == "" {
			out.PlaceID = src.PlaceID
		}
		if out.Name == "" {
			out.Name = src.Name
		}
		if out.LogoKey == "" && out.LogoURL == "" {
			out.LogoKey = src.LogoKey
			out.LogoURL = src.LogoURL
		}
	}

	if out == (models.BusinessRef{}) {
		return nil
	}
	return &out
}
