package services

import "testing"

func TestScoreMumsnetThread(t *testing.T) {
	thread := MumsnetThread{
		Board:   "chat",
		Title:   "What personalised birthday gift for granny?",
		Replies: 3,
	}

	score, danger := ScoreMumsnetThread(thread)

	// Question + grandparent + occasion + personalization + low replies
	if score < 0.99 {
		t.Errorf("expected near-full score, got %f", score)
	}
	if danger != 0 {
		t.Errorf("expected no danger for a plain question, got %d", danger)
	}
}

func TestScoreMumsnetThreadIrrelevant(t *testing.T) {
	thread := MumsnetThread{
		Board:   "chat",
		Title:   "school run traffic is terrible again",
		Replies: 40,
	}

	score, _ := ScoreMumsnetThread(thread)
	if score != 0 {
		t.Errorf("expected zero score, got %f", score)
	}
}

func TestMumsnetDanger(t *testing.T) {
	aibu := MumsnetThread{
		Board:   "am_i_being_unreasonable",
		Title:   "AIBU to hate sponsored posts?",
		Replies: 150,
	}
	_, danger := ScoreMumsnetThread(aibu)

	// sponsored + aibu board/keyword + busy thread
	if danger < 3 {
		t.Errorf("expected danger >= 3, got %d", danger)
	}
}

func TestMumsnetDangerCapped(t *testing.T) {
	hostile := MumsnetThread{
		Board:   "am_i_being_unreasonable",
		Title:   "aibu fed up with ads marketing sponsored shill mlm pm me",
		Replies: 500,
	}
	_, danger := ScoreMumsnetThread(hostile)
	if danger != 5 {
		t.Errorf("expected danger capped at 5, got %d", danger)
	}
}

func TestEngageRecommended(t *testing.T) {
	if !EngageRecommended(0.8, 1) {
		t.Error("expected relevant safe thread to be recommended")
	}
	if EngageRecommended(0.8, 4) {
		t.Error("dangerous thread recommended")
	}
	if EngageRecommended(0.3, 0) {
		t.Error("irrelevant thread recommended")
	}
	if EngageRecommended(0.6, 0) {
		t.Error("floor is exclusive, 0.6 should not pass")
	}
}

func TestMatchesMumsnetKeywords(t *testing.T) {
	if !matchesMumsnetKeywords("Secret Santa ideas under £10") {
		t.Error("expected keyword match")
	}
	if !matchesMumsnetKeywords("what to get DH who wants nothing") {
		t.Error("expected phrase match")
	}
	if matchesMumsnetKeywords("house prices in our area") {
		t.Error("off-topic thread matched")
	}
}
