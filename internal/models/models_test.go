package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 30, 0, 0, time.UTC)
}

func TestUserPoints_AddPoints(t *testing.T) {
	p := NewUserPoints("u1")
	assert.False(t, p.AddPoints(10, 10))
	assert.Equal(t, 1, p.Level)

	assert.True(t, p.AddPoints(240, 240))
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, 30, p.ExperiencePoints)
	assert.Equal(t, 144, p.ExperienceToNextLevel)
	assert.Equal(t, 250, p.TotalPoints)
	assert.Equal(t, 250, p.CurrentPoints)

	zero := &UserPoints{Level: 1}
	assert.True(t, zero.AddPoints(100, 100))
	assert.Equal(t, 2, zero.Level)
	assert.Equal(t, 120, zero.ExperienceToNextLevel)
}

func TestUserPoints_UpdateStreak(t *testing.T) {
	p := NewUserPoints("u1")
	p.UpdateStreak(day(2024, time.March, 1))
	assert.Equal(t, 1, p.CurrentStreak)

	p.UpdateStreak(day(2024, time.March, 1).Add(5 * time.Hour))
	assert.Equal(t, 1, p.CurrentStreak)

	p.UpdateStreak(day(2024, time.March, 2))
	p.UpdateStreak(day(2024, time.March, 3))
	assert.Equal(t, 3, p.CurrentStreak)
	assert.Equal(t, 3, p.LongestStreak)

	p.UpdateStreak(day(2024, time.March, 10))
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 3, p.LongestStreak)
	require.NotNil(t, p.LastActivityDate)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), *p.LastActivityDate)
}

func TestStudyStreak_Record(t *testing.T) {
	today := day(2024, time.June, 10)
	s := &StudyStreak{UserID: "u1"}

	s.Record(day(2024, time.June, 8), today)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Nil(t, s.StreakStartDate)

	s.Record(day(2024, time.June, 10), today)
	assert.Equal(t, 1, s.CurrentStreak)

	// out-of-order days are inserted sorted and can bridge a gap
	s.Record(day(2024, time.June, 9), today)
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestStreak)
	assert.Equal(t, []string{"2024-06-08", "2024-06-09", "2024-06-10"}, s.Dates())
	require.NotNil(t, s.StreakStartDate)
	assert.Equal(t, time.Date(2024, time.June, 8, 0, 0, 0, 0, time.UTC), *s.StreakStartDate)

	s.Record(day(2024, time.June, 10), today)
	assert.Len(t, s.Dates(), 3)

	s.Record(day(2024, time.June, 13), day(2024, time.June, 13))
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestStreak)
}

func TestAchievement_SetValue(t *testing.T) {
	a := &Achievement{AchievementType: "perfect_assessment", TargetValue: AchievementTarget("perfect_assessment")}
	at := time.Now()

	assert.False(t, a.SetValue(0, at))
	assert.Equal(t, 0.0, a.ProgressPercentage)
	assert.True(t, a.SetValue(3, at))
	assert.Equal(t, 100.0, a.ProgressPercentage)
	assert.False(t, a.SetValue(4, at), "completes only once")

	assert.Equal(t, 10.0, AchievementTarget("unknown"))
	assert.Equal(t, 0.0, (&Achievement{}).Progress())
}

func TestProgressRecalculate(t *testing.T) {
	at := time.Now()

	topic := &TopicProgress{TotalMaterials: 4, MaterialsCompleted: 1}
	topic.Recalculate(at)
	assert.Equal(t, 25.0, topic.ProgressPercentage)
	assert.False(t, topic.IsCompleted)
	topic.MaterialsCompleted = 4
	topic.Recalculate(at)
	assert.True(t, topic.IsCompleted)
	require.NotNil(t, topic.CompletedAt)

	empty := &TopicProgress{}
	empty.Recalculate(at)
	assert.Equal(t, 0.0, empty.ProgressPercentage)

	course := &CourseProgress{TotalTopics: 2, TopicsCompleted: 1, TotalMaterials: 4, MaterialsCompleted: 1}
	course.Recalculate(at)
	assert.Equal(t, 37.5, course.OverallProgress)
	assert.Nil(t, course.CompletionDate)
}

func TestRoles(t *testing.T) {
	assert.Equal(t, RoleTeacher, NormalizeRole(" Teacher "))
	assert.Equal(t, RoleStudent, NormalizeRole("root"))

	u := &User{Username: "jdoe", Role: RoleAdmin}
	assert.Equal(t, "jdoe", u.FullName())
	u.FirstName = "Jane"
	assert.Equal(t, "Jane", u.FullName())
	assert.True(t, u.IsAdmin())
	assert.False(t, u.IsStudent())
}
