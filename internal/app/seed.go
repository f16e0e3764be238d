package app

import (
	"context"
	"fmt"

	"aniflix/pkg/domain"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// demoShows is the demo catalog inserted by Seed when the show collection
// is empty.
var demoShows = []domain.Show{
	{
		Title:       "Attack on Titan",
		Description: "Humans vs. titans in a walled world.",
		Genres:      []string{"action", "drama"},
		Type:        domain.TypeAnime,
		Year:        intPtr(2013),
		Rating:      floatPtr(9.0),
		PosterURL:   "https://image.tmdb.org/t/p/w342/aiy35Evcofzl7hASZZvsFgltHTX.jpg",
		BackdropURL: "https://image.tmdb.org/t/p/w780/gnWgk6W2vNhbbX6YsJhBKt3vnDn.jpg",
		Tags:        []string{"trending", "popular"},
	},
	{
		Title:       "Demon Slayer",
		Description: "Tanjiro becomes a demon slayer after tragedy.",
		Genres:      []string{"action", "fantasy"},
		Type:        domain.TypeAnime,
		Year:        intPtr(2019),
		Rating:      floatPtr(8.8),
		PosterURL:   "https://image.tmdb.org/t/p/w342/wrCVHdkBlBWdJUZPvnJWcBRuhSY.jpg",
		BackdropURL: "https://image.tmdb.org/t/p/w780/bOGk3ZcZ1UBX8ZUBKbjDg7sWXBm.jpg",
		Tags:        []string{"trending"},
	},
	{
		Title:       "Avatar: The Last Airbender",
		Description: "The four nations, one avatar.",
		Genres:      []string{"adventure", "fantasy"},
		Type:        domain.TypeCartoon,
		Year:        intPtr(2005),
		Rating:      floatPtr(9.2),
		PosterURL:   "https://image.tmdb.org/t/p/w342/cs0neU42Pvvrg1I8o1gChX2NDSS.jpg",
		BackdropURL: "https://image.tmdb.org/t/p/w780/8mRgpubxHqnqvENK3H4WlfHXo60.jpg",
		Tags:        []string{"classic"},
	},
}

// Seed inserts the demo shows when the show collection is empty. It reports
// whether anything was inserted together with the resulting count.
func (a *App) Seed(ctx context.Context) (bool, int, error) {
	count, err := a.store.CountShows(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("count shows: %w", err)
	}
	if count > 0 {
		return false, int(count), nil
	}
	for _, show := range demoShows {
		if _, err := a.CreateShow(ctx, show); err != nil {
			return false, 0, fmt.Errorf("seed show %q: %w", show.Title, err)
		}
	}
	return true, len(demoShows), nil
}
