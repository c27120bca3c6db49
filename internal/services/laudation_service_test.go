package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/ecgscan/internal/models"
)

func TestJaneDoeTriageScenario(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	nurse := env.seedUser(t, "ana", models.RoleNurse)
	physician := env.seedUser(t, "house", models.RolePhysician)

	id, err := env.records.CreateRecord(ctx, nurse, CreateRecordInput{
		PatientName:  "Jane Doe",
		Age:          "54",
		Sex:          "Female",
		HasPacemaker: "No",
		Priority:     "Urgent",
	}, pngUpload())
	require.NoError(t, err)

	next, err := env.queue.NextPending(ctx, physician, "Urgent")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, id, next.ID)

	lauded, err := env.laudation.SubmitLaudation(ctx, physician, id, "Sinus rhythm, normal.", &models.LaudationDetails{Rhythm: "Sinusal"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusLauded, lauded.Status)

	next, err = env.queue.NextPending(ctx, physician, "Urgent")
	require.NoError(t, err)
	if next != nil {
		assert.NotEqual(t, id, next.ID)
	}

	stored, err := env.records.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLauded, stored.Status)
	require.NotNil(t, stored.LaudationContent)
	assert.Equal(t, "Sinus rhythm, normal.", *stored.LaudationContent)
	require.NotNil(t, stored.LaudationDoctorID)
	assert.Equal(t, physician.ID, *stored.LaudationDoctorID)
	require.NotNil(t, stored.LaudedAt)

	details, err := stored.Details()
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "Sinusal", details.Rhythm)
}

func TestSubmitLaudationTwiceKeepsFirstResult(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	nurse := env.seedUser(t, "ana", models.RoleNurse)
	physician := env.seedUser(t, "house", models.RolePhysician)
	other := env.seedUser(t, "wilson", models.RolePhysician)
	id := env.createRecord(t, nurse, "Jane Doe", models.PriorityUrgent)

	_, err := env.laudation.SubmitLaudation(ctx, physician, id, "First report.", &models.LaudationDetails{HeartRate: "72"})
	require.NoError(t, err)
	afterFirst, err := env.records.GetByID(ctx, id)
	require.NoError(t, err)

	_, err = env.laudation.SubmitLaudation(ctx, other, id, "Second report.", &models.LaudationDetails{HeartRate: "110"})
	require.ErrorIs(t, err, ErrInvalidState)

	afterSecond, err := env.records.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, afterFirst, afterSecond)
}

func TestSubmitLaudationConcurrentPhysiciansSingleWinner(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	nurse := env.seedUser(t, "ana", models.RoleNurse)
	physicians := []*Identity{
		env.seedUser(t, "house", models.RolePhysician),
		env.seedUser(t, "wilson", models.RolePhysician),
		env.seedUser(t, "cuddy", models.RolePhysician),
	}
	id := env.createRecord(t, nurse, "Jane Doe", models.PriorityUrgent)

	var wg sync.WaitGroup
	results := make([]error, len(physicians))
	for index, physician := range physicians {
		wg.Add(1)
		go func(index int, physician *Identity) {
			defer wg.Done()
			_, results[index] = env.laudation.SubmitLaudation(ctx, physician, id, "report by "+physician.ID, nil)
		}(index, physician)
	}
	wg.Wait()

	winners := 0
	winner := ""
	for index, err := range results {
		if err == nil {
			winners++
			winner = physicians[index].ID
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidState)
	}
	require.Equal(t, 1, winners)

	stored, err := env.records.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.LaudationDoctorID)
	assert.Equal(t, winner, *stored.LaudationDoctorID)
	assert.Equal(t, "report by "+winner, *stored.LaudationContent)
}

func TestSubmitLaudationGuards(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	nurse := env.seedUser(t, "ana", models.RoleNurse)
	physician := env.seedUser(t, "house", models.RolePhysician)
	id := env.createRecord(t, nurse, "Jane Doe", models.PriorityUrgent)

	_, err := env.laudation.SubmitLaudation(ctx, nil, id, "text", nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.laudation.SubmitLaudation(ctx, nurse, id, "text", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.laudation.SubmitLaudation(ctx, physician, id, " \n\t ", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.laudation.SubmitLaudation(ctx, physician, "missing", "text", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	record, err := env.records.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, record.IsPending())
}

type staleLaudationRepo struct {
	record models.EcgRecord
	writes int
}

func (repo *staleLaudationRepo) FindByID(context.Context, string) (models.EcgRecord, error) {
	return repo.record, nil
}

func (repo *staleLaudationRepo) MarkLauded(context.Context, string, models.LaudationUpdate) (bool, error) {
	repo.writes++
	return false, nil
}

func TestSubmitLaudationStaleReadIsRejectedAtWrite(t *testing.T) {
	repo := &staleLaudationRepo{record: models.EcgRecord{ID: "r-1", Status: models.StatusPending}}
	service := NewLaudationService(repo, quietTestLogger())
	physician := &Identity{ID: "doc-1", Role: models.RolePhysician}

	_, err := service.SubmitLaudation(context.Background(), physician, "r-1", "text", nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, repo.writes)
}

func TestEncodeLaudationDetailsDropsEmptyForm(t *testing.T) {
	encoded, err := encodeLaudationDetails(&models.LaudationDetails{Rhythm: "  "})
	require.NoError(t, err)
	assert.Nil(t, encoded)

	encoded, err = encodeLaudationDetails(&models.LaudationDetails{Rhythm: " Sinusal ", CompleteBundleBranchBlock: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ritmo":"Sinusal","brc":true}`, string(encoded))
}
