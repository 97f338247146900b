package sqlengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlibin/event-attendees/eventrepo"
	"github.com/qlibin/event-attendees/eventrepo/sqlengine"
	"github.com/qlibin/event-attendees/testutil/helper"
	"github.com/qlibin/event-attendees/testutil/helper/postgreswrapper"
)

func Test_Postgres_CreateOrUpdate_And_FindEvents(t *testing.T) {
	storages := []sqlengine.AttendeeStorage{sqlengine.AttendeeStorageRelation, sqlengine.AttendeeStorageTokens}

	for _, storage := range storages {
		t.Run(string(storage), func(t *testing.T) {
			// setup
			wrapper := postgreswrapper.CreateWrapperWithTestConfig(
				t,
				sqlengine.WithAttendeeStorage(storage),
				sqlengine.WithTransactionalWrites(),
			)
			defer postgreswrapper.CleanUp(t, wrapper)

			repo := wrapper.GetRepository()
			ctx := context.Background()

			// arrange
			require.NoError(t, repo.CreateOrUpdate(ctx, 7, 500, helper.GivenAttendees(1, 2, 3)))
			require.NoError(t, repo.CreateOrUpdate(ctx, 7, 900, helper.GivenAttendees(2, 4)))
			require.NoError(t, repo.CreateOrUpdate(ctx, 123, 12030, helper.GivenAttendees(1, 3, 4, 6)))
			require.NoError(t, repo.CreateOrUpdate(ctx, 124, 12031, helper.GivenAttendees(3)))
			require.NoError(t, repo.CreateOrUpdate(ctx, 125, 20000, helper.GivenAttendees(3, 6)))

			// act
			events, err := repo.FindEvents(ctx, 100, 15000, helper.GivenAttendees(3, 6))

			// assert
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, eventrepo.EventID(123), events[0].ID)
			assert.True(t, events[0].Attendees.Equal(helper.GivenAttendees(1, 3, 4, 6)))

			replaced, err := repo.GetEvent(ctx, 7)
			require.NoError(t, err)
			assert.Equal(t, eventrepo.StartTime(900), replaced.StartTime)
			assert.True(t, replaced.Attendees.Equal(helper.GivenAttendees(2, 4)), replaced.Attendees.String())

			count, err := repo.CountEvents(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, count)
		})
	}
}
