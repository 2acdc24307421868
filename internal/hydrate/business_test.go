package hydrate

import (
	"testing"

	"github.com/plazasocial/plaza/internal/models"
)

func TestDeriveBusiness(t *testing.T) {
	tests := []struct {
		name string
		post *models.Post
		want *models.BusinessRef
	}{
		{
			name: "nil post",
			post: nil,
			want: nil,
		},
		{
			name: "no sources",
			post: &models.Post{ID: "p1", Type: models.PostTypeCheckin},
			want: nil,
		},
		{
			name: "top-level stamp wins",
			post: &models.Post{
				Business: &models.BusinessRef{PlaceID: "place-1", Name: "Top", LogoKey: "logos/top.png"},
				Details: models.Details{Checkin: &models.CheckinDetails{
					Business: &models.BusinessRef{PlaceID: "place-2", Name: "Details"},
				}},
			},
			want: &models.BusinessRef{PlaceID: "place-1", Name: "Top", LogoKey: "logos/top.png"},
		},
		{
			name: "field-level fallback merges sources",
			post: &models.Post{
				Business: &models.BusinessRef{Name: "Top Only"},
				Details: models.Details{Invite: &models.InviteDetails{
					Business: &models.BusinessRef{PlaceID: "place-3"},
				}},
				RefBusiness: &models.BusinessRef{LogoKey: "logos/legacy.png"},
			},
			want: &models.BusinessRef{PlaceID: "place-3", Name: "Top Only", LogoKey: "logos/legacy.png"},
		},
		{
			name: "venue place fills when stamps absent",
			post: &models.Post{
				Venue: &models.Venue{Place: &models.PlaceRef{PlaceID: "place-4", Name: "The Corner"}},
			},
			want: &models.BusinessRef{PlaceID: "place-4", Name: "The Corner"},
		},
		{
			name: "shared snapshot consulted last",
			post: &models.Post{
				Type:   models.PostTypeShared,
				Shared: &models.SharedRef{
					OriginalPostID: "orig-1",
					Snapshot: &models.Post{
						Business: &models.BusinessRef{PlaceID: "place-5", Name: "Snap"},
					},
				},
			},
			want: &models.BusinessRef{PlaceID: "place-5", Name: "Snap"},
		},
		{
			name: "existing logo url blocks logo key fallback",
			post: &models.Post{
				Business:    &models.BusinessRef{Name: "Named", LogoURL: "https://cdn/x.png"},
				RefBusiness: &models.BusinessRef{LogoKey: "logos/should-not-win.png"},
			},
			want: &models.BusinessRef{Name: "Named", LogoURL: "https://cdn/x.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveBusiness(tt.post)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("DeriveBusiness() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("DeriveBusiness() = nil, want value")
			}
			if *got != *tt.want {
				t.Errorf("DeriveBusiness() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
