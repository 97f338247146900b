package sqlengine_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/qlibin/event-attendees/eventrepo"
	"github.com/qlibin/event-attendees/eventrepo/sqlengine"
	"github.com/qlibin/event-attendees/testutil/helper"
)

func Test_Property_FindEvents_Returns_Exactly_SupersetsInRange(t *testing.T) {
	for _, storage := range []sqlengine.AttendeeStorage{sqlengine.AttendeeStorageRelation, sqlengine.AttendeeStorageTokens} {
		t.Run(string(storage), func(t *testing.T) {
			parameters := gopter.DefaultTestParameters()
			parameters.MinSuccessfulTests = 25

			properties := gopter.NewProperties(parameters)

			properties.Property("query result equals the in-memory filter", prop.ForAll(
				func(seed int64, from int64, span int64, queried []int64) bool {
					repo, _ := helper.NewSQLiteRepository(t, sqlengine.WithAttendeeStorage(storage))
					ctx := context.Background()

					//nolint:gosec
					rng := rand.New(rand.NewPCG(uint64(seed), 0))
					stored := make(map[eventrepo.EventID]eventrepo.Event)

					for i := 0; i < 30; i++ {
						id := rng.Int64N(15) + 1
						startTime := rng.Int64N(100) + 1

						ids := make([]eventrepo.AttendeeID, rng.IntN(5))
						for j := range ids {
							ids[j] = rng.Int64N(6) + 1
						}

						attendees := eventrepo.NewAttendeeSet(ids...)
						require.NoError(t, repo.CreateOrUpdate(ctx, id, startTime, attendees))

						stored[id] = eventrepo.Event{ID: id, StartTime: startTime, Attendees: attendees}
					}

					until := from + span
					wanted := eventrepo.NewAttendeeSet(queried...)

					found, err := repo.FindEvents(ctx, from, until, wanted)
					if err != nil {
						return false
					}

					expected := 0
					for _, event := range stored {
						if event.StartTime >= from && event.StartTime <= until && event.Attendees.ContainsAll(wanted) {
							expected++
						}
					}

					if len(found) != expected {
						return false
					}

					for i, event := range found {
						want, ok := stored[event.ID]
						if !ok || want.StartTime != event.StartTime || !want.Attendees.Equal(event.Attendees) {
							return false
						}

						if i > 0 && found[i-1].ID >= event.ID {
							return false
						}
					}

					return true
				},
				gen.Int64(),
				gen.Int64Range(1, 100),
				gen.Int64Range(0, 100),
				gen.SliceOfN(3, gen.Int64Range(1, 6)),
			))

			properties.TestingRun(t)
		})
	}
}
