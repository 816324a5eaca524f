package service

import (
	"sync"
	"testing"
	"time"

	"sportsmatch/internal/apperr"
	"sportsmatch/internal/events"
	"sportsmatch/internal/models"
	"sportsmatch/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchService_Create(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)

	matchID := f.createMatch(t, host, 10, models.GenderBoth)

	match, err := f.store.FindMatch(f.ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, host, match.HostID)
	assert.Equal(t, "2-beginner", match.TierID)

	ids, err := f.store.ParticipantIDs(f.ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, []string{host}, ids)
	assert.Contains(t, f.pub.types(), events.MatchCreated)
}

func TestMatchService_CreateRejects(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)

	valid := models.CreateMatchRequest{
		SportsType: "tennis",
		Title:      "Morning rally",
		Content:    "Doubles practice session",
		Gender:     models.GenderBoth,
		Capability: 4,
		MatchDay:   testNow.Add(time.Hour),
	}

	noProfile, _ := f.newID()
	require.NoError(t, f.store.CreateUser(f.ctx, &models.User{ID: noProfile, Provider: models.ProviderKakao}))

	tests := []struct {
		name   string
		hostID string
		mutate func(r *models.CreateMatchRequest)
		want   error
	}{
		{"missing profile", noProfile, func(r *models.CreateMatchRequest) {}, apperr.ErrProfileNotFound},
		{"unknown sport", host, func(r *models.CreateMatchRequest) { r.SportsType = "curling" }, apperr.ErrSportTypeNotFound},
		{"past match day", host, func(r *models.CreateMatchRequest) { r.MatchDay = testNow.Add(-time.Minute) }, apperr.ErrMatchDayNotInFuture},
		{"capability below two", host, func(r *models.CreateMatchRequest) { r.Capability = 1 }, apperr.ErrInvalidCapability},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := f.matches.Create(f.ctx, tt.hostID, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMatchService_ParticipateOverCapacity(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)
	matchID := f.createMatch(t, host, 2, models.GenderBoth)

	second := f.user(t, models.GenderFemale)
	resp, err := f.matches.Participate(f.ctx, second, matchID)
	require.NoError(t, err)
	assert.True(t, resp.Participating)
	assert.Equal(t, 2, resp.Applicants)

	third := f.user(t, models.GenderMale)
	_, err = f.matches.Participate(f.ctx, third, matchID)
	assert.ErrorIs(t, err, apperr.ErrParticipationLimit)
	assert.Equal(t, 2, f.rosterSize(t, matchID))
}

func TestMatchService_ConcurrentJoinsRespectCapability(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)
	const capability, joiners = 5, 12
	matchID := f.createMatch(t, host, capability, models.GenderBoth)

	users := make([]string, joiners)
	for i := range users {
		users[i] = f.user(t, models.GenderFemale)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		limited int
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := f.matches.Participate(f.ctx, userID, matchID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, apperr.ErrParticipationLimit):
				limited++
			}
		}(u)
	}
	wg.Wait()

	// the host holds one of the seats
	assert.Equal(t, capability-1, ok)
	assert.Equal(t, joiners-(capability-1), limited)
	assert.Equal(t, capability, f.rosterSize(t, matchID))
}

func TestMatchService_ParticipateGender(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)

	maleOnly := f.createMatch(t, host, 10, models.GenderMale)
	woman := f.user(t, models.GenderFemale)
	_, err := f.matches.Participate(f.ctx, woman, maleOnly)
	assert.ErrorIs(t, err, apperr.ErrGenderMismatch)

	open := f.createMatch(t, host, 10, models.GenderBoth)
	resp, err := f.matches.Participate(f.ctx, woman, open)
	require.NoError(t, err)
	assert.True(t, resp.Participating)
}

func TestMatchService_CancelLock(t *testing.T) {
	tests := []struct {
		name    string
		roster  int
		wantErr error
	}{
		{"80 percent full is locked", 8, apperr.ErrCancelLocked},
		{"70 percent full may leave", 7, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			host := f.user(t, models.GenderMale)
			matchID := f.createMatch(t, host, 10, models.GenderBoth)
			joined := f.fill(t, matchID, tt.roster-1, models.GenderMale)

			resp, err := f.matches.Participate(f.ctx, joined[0], matchID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.roster, f.rosterSize(t, matchID))
				return
			}
			require.NoError(t, err)
			assert.False(t, resp.Participating)
			assert.Equal(t, tt.roster-1, resp.Applicants)
			assert.Equal(t, tt.roster-1, f.rosterSize(t, matchID))
			assert.Contains(t, f.pub.types(), events.MatchLeft)
		})
	}
}

func TestMatchService_ParticipateRules(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)
	matchID := f.createMatch(t, host, 10, models.GenderBoth)

	t.Run("host cannot leave own match", func(t *testing.T) {
		before := f.rosterSize(t, matchID)

		_, err := f.matches.Participate(f.ctx, host, matchID)
		assert.ErrorIs(t, err, apperr.ErrSelfParticipation)
		assert.Equal(t, before, f.rosterSize(t, matchID))

		ok, err := f.store.IsParticipant(f.ctx, matchID, host)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("tier mismatch", func(t *testing.T) {
		pro := f.user(t, models.GenderMale)
		require.NoError(t, f.store.SwapUserTier(f.ctx, pro, 2, "2-pro"))

		_, err := f.matches.Participate(f.ctx, pro, matchID)
		assert.ErrorIs(t, err, apperr.ErrTierMismatch)
	})

	t.Run("expired", func(t *testing.T) {
		late := f.createMatch(t, host, 10, models.GenderBoth)
		f.setMatchDay(t, late, testNow.Add(-time.Hour))

		_, err := f.matches.Participate(f.ctx, f.user(t, models.GenderMale), late)
		assert.ErrorIs(t, err, apperr.ErrParticipationExpired)
	})

	t.Run("cannot leave a started match", func(t *testing.T) {
		started := f.createMatch(t, host, 10, models.GenderBoth)
		guest := f.fill(t, started, 1, models.GenderMale)[0]
		f.setMatchDay(t, started, testNow.Add(-time.Hour))

		_, err := f.matches.Participate(f.ctx, guest, started)
		assert.ErrorIs(t, err, apperr.ErrParticipationExpired)
		assert.Equal(t, 2, f.rosterSize(t, started))

		results, err := f.matches.Rate(f.ctx, host, started, []models.RateItem{{ParticipantID: guest, Value: 2}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Nil(t, results[0].Error)
	})

	t.Run("unknown match", func(t *testing.T) {
		_, err := f.matches.Participate(f.ctx, host, "missing")
		assert.ErrorIs(t, err, apperr.ErrMatchNotFound)
	})
}

func TestMatchService_EditAndDelete(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)
	other := f.user(t, models.GenderMale)
	matchID := f.createMatch(t, host, 10, models.GenderBoth)

	title := "Evening futsal"
	_, err := f.matches.Edit(f.ctx, other, matchID, models.UpdateMatchRequest{Title: &title})
	assert.ErrorIs(t, err, apperr.ErrEditForbidden)

	unknown := "curling"
	_, err = f.matches.Edit(f.ctx, host, matchID, models.UpdateMatchRequest{SportsType: &unknown})
	assert.ErrorIs(t, err, apperr.ErrSportTypeNotFound)

	f.fill(t, matchID, 3, models.GenderMale)
	tooSmall := 3
	_, err = f.matches.Edit(f.ctx, host, matchID, models.UpdateMatchRequest{Capability: &tooSmall})
	assert.ErrorIs(t, err, apperr.ErrCapabilityBelowRoster)

	tennis, capability := "tennis", 6
	updated, err := f.matches.Edit(f.ctx, host, matchID, models.UpdateMatchRequest{
		Title:      &title,
		SportsType: &tennis,
		Capability: &capability,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, 1, updated.SportsTypeID)
	assert.Equal(t, "1-beginner", updated.TierID)
	assert.Equal(t, 6, updated.Capability)

	assert.ErrorIs(t, f.matches.Delete(f.ctx, other, matchID), apperr.ErrEditForbidden)
	assert.ErrorIs(t, f.matches.Delete(f.ctx, host, "missing"), apperr.ErrMatchNotFound)
}

func TestMatchService_DeleteRemovesRoster(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)
	matchID := f.createMatch(t, host, 4, models.GenderBoth)
	require.Equal(t, 1, f.rosterSize(t, matchID))

	require.NoError(t, f.matches.Delete(f.ctx, host, matchID))

	_, err := f.store.FindMatch(f.ctx, matchID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 0, f.rosterSize(t, matchID))
	assert.Contains(t, f.pub.types(), events.MatchDeleted)
}

func TestMatchService_DeleteKeepsRatedMatch(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)
	matchID := f.createMatch(t, host, 4, models.GenderBoth)
	guest := f.fill(t, matchID, 1, models.GenderMale)[0]
	f.setMatchDay(t, matchID, testNow.Add(-time.Hour))

	_, err := f.matches.Rate(f.ctx, host, matchID, []models.RateItem{{ParticipantID: guest, Value: 4}})
	require.NoError(t, err)

	assert.ErrorIs(t, f.matches.Delete(f.ctx, host, matchID), apperr.ErrMatchHasRatings)
	assert.Equal(t, 2, f.rosterSize(t, matchID))

	// the foreign key backs the count: the store refuses too and the roster
	// delete rolls back
	err = f.store.DeleteMatch(f.ctx, matchID)
	assert.ErrorIs(t, err, repository.ErrReferenced)
	assert.Equal(t, 2, f.rosterSize(t, matchID))
}

func TestMatchService_Find(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)
	viewer := f.user(t, models.GenderMale)

	soon := f.createMatch(t, host, 10, models.GenderBoth)
	later := f.createMatch(t, host, 10, models.GenderBoth)
	f.setMatchDay(t, later, testNow.Add(5*24*time.Hour))
	farAway := f.createMatch(t, host, 10, models.GenderBoth)
	f.setMatchDay(t, farAway, testNow.Add(30*24*time.Hour))

	_, err := f.matches.Participate(f.ctx, viewer, later)
	require.NoError(t, err)

	t.Run("default window is two weeks ascending", func(t *testing.T) {
		views, err := f.matches.Find(f.ctx, viewer, models.MatchFilter{})
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, soon, views[0].ID)
		assert.Equal(t, later, views[1].ID)
		assert.Equal(t, "soccer", views[1].SportsType)
		assert.Equal(t, models.TierBeginner, views[1].Tier)
		assert.Equal(t, 2, views[1].Applicants)
		assert.True(t, views[1].Participating)
		assert.False(t, views[0].Participating)
	})

	t.Run("anonymous viewer", func(t *testing.T) {
		views, err := f.matches.Find(f.ctx, "", models.MatchFilter{})
		require.NoError(t, err)
		for _, v := range views {
			assert.False(t, v.Participating)
		}
	})

	t.Run("single day", func(t *testing.T) {
		day := testNow.Add(30 * 24 * time.Hour).Format("2006-01-02")
		views, err := f.matches.Find(f.ctx, "", models.MatchFilter{Date: day})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, farAway, views[0].ID)
	})

	t.Run("filters that match nothing", func(t *testing.T) {
		for _, filter := range []models.MatchFilter{
			{SportsType: "tennis"},
			{SportsType: "curling"},
			{Tier: "pro"},
			{Tier: "legend"},
			{Region: "busan"},
		} {
			views, err := f.matches.Find(f.ctx, "", filter)
			require.NoError(t, err)
			assert.Empty(t, views, "%+v", filter)
		}
	})

	t.Run("matching filters", func(t *testing.T) {
		views, err := f.matches.Find(f.ctx, "", models.MatchFilter{SportsType: "soccer", Tier: "beginner", Region: "seoul"})
		require.NoError(t, err)
		assert.Len(t, views, 2)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := f.matches.Find(f.ctx, "", models.MatchFilter{Date: "01/02/2026"})
		assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
	})
}

func TestMatchService_Search(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)
	futsal := f.createMatch(t, host, 10, models.GenderBoth)

	title, content := "Basketball pickup", "Half court three on three"
	hoops := f.createMatch(t, host, 6, models.GenderBoth)
	_, err := f.matches.Edit(f.ctx, host, hoops, models.UpdateMatchRequest{Title: &title, Content: &content})
	require.NoError(t, err)

	tests := []struct {
		keywords string
		want     []string
	}{
		{"futsal", []string{futsal}},
		{"fut", []string{futsal}},
		{"HALF court", []string{hoops}},
		{"friendly court", nil},
		{"sal", nil},
		{"   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.keywords, func(t *testing.T) {
			views, err := f.matches.Search(f.ctx, "", tt.keywords)
			require.NoError(t, err)
			got := make([]string, 0, len(views))
			for _, v := range views {
				got = append(got, v.ID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestMatchService_FindMatch(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, models.GenderMale)
	matchID := f.createMatch(t, host, 4, models.GenderBoth)
	guest := f.fill(t, matchID, 1, models.GenderFemale)[0]

	detail, err := f.matches.FindMatch(f.ctx, guest, matchID)
	require.NoError(t, err)
	assert.True(t, detail.Participating)
	assert.Equal(t, 2, detail.Applicants)
	require.Len(t, detail.Participants, 2)
	assert.Equal(t, "nick-"+host, detail.Participants[0].Nickname)
	assert.Equal(t, models.GenderFemale, detail.Participants[1].Gender)

	_, err = f.matches.FindMatch(f.ctx, "", "missing")
	assert.ErrorIs(t, err, apperr.ErrMatchNotFound)
}
