package services

import (
	"math"
	"testing"
	"time"
)

func TestScoreRedditPost(t *testing.T) {
	now := time.Now()

	// Fresh UK gift question with no replies scores the full set
	hot := RedditPost{
		Title:       "What birthday gift for my mum who has everything?",
		SelfText:    "She's in London, I'm stuck.",
		Subreddit:   "CasualUK",
		CreatedUTC:  float64(now.Add(-2 * time.Hour).Unix()),
		NumComments: 2,
	}
	if got := ScoreRedditPost(hot, now); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected full score 1.0, got %f", got)
	}

	// Stale thread with heavy competition barely registers
	cold := RedditPost{
		Title:       "Gift thread from last week",
		SelfText:    "old discussion",
		Subreddit:   "GiftIdeas",
		CreatedUTC:  float64(now.Add(-200 * time.Hour).Unix()),
		NumComments: 80,
	}
	if got := ScoreRedditPost(cold, now); got > 0.3 {
		t.Errorf("expected stale crowded thread below 0.3, got %f", got)
	}
}

func TestScoreRedditPostRecencyTiers(t *testing.T) {
	now := time.Now()
	base := RedditPost{
		Title:       "random thread title",
		NumComments: 50,
	}

	fresh := base
	fresh.CreatedUTC = float64(now.Add(-1 * time.Hour).Unix())

	day := base
	day.CreatedUTC = float64(now.Add(-12 * time.Hour).Unix())

	old := base
	old.CreatedUTC = float64(now.Add(-48 * time.Hour).Unix())

	if s1, s2 := ScoreRedditPost(fresh, now), ScoreRedditPost(day, now); s1 <= s2 {
		t.Errorf("expected <6h (%f) to outscore <24h (%f)", s1, s2)
	}
	if s2, s3 := ScoreRedditPost(day, now), ScoreRedditPost(old, now); s2 <= s3 {
		t.Errorf("expected <24h (%f) to outscore <72h (%f)", s2, s3)
	}
}

func TestMentionsGifting(t *testing.T) {
	if !mentionsGifting(RedditPost{Title: "Need a PRESENT for my sister"}) {
		t.Error("expected title keyword match")
	}
	if !mentionsGifting(RedditPost{Title: "help me", SelfText: "her wedding is soon"}) {
		t.Error("expected body keyword match")
	}
	if mentionsGifting(RedditPost{Title: "best pizza in town", SelfText: "toppings debate"}) {
		t.Error("off-topic thread matched")
	}
}

func TestHasQuestionOpener(t *testing.T) {
	yes := []string{
		"what should i get",
		"looking for something special",
		"need ideas fast",
		"any suggestions welcome",
	}
	for _, title := range yes {
		if !hasQuestionOpener(title) {
			t.Errorf("expected opener match for %q", title)
		}
	}

	if hasQuestionOpener("i bought a thing yesterday") {
		t.Error("statement matched as question")
	}
}

func TestIsUKContext(t *testing.T) {
	if !isUKContext("CasualUK", "anything") {
		t.Error("expected CasualUK subreddit to count")
	}
	if !isUKContext("GiftIdeas", "she shops at john lewis every week") {
		t.Error("expected retailer mention to count")
	}
	if isUKContext("GiftIdeas", "she lives in texas") {
		t.Error("US thread counted as UK")
	}
}
