package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsFlattenReviews(t *testing.T) {
	r := &JobRecord{JobID: Some("123"), TotalReviewsCount: Some(1)}
	r.Reviews[0].ProjectTitle = Some("Chatbot build")
	r.Reviews[2].Budget = None[string]()

	byName := map[string]Column{}
	var order []string
	for _, c := range r.Columns() {
		byName[c.Name] = c
		order = append(order, c.Name)
	}

	assert.Equal(t, "job_id", order[0])
	assert.Equal(t, "client_review_3_budget", order[len(order)-1])
	assert.Equal(t, Present, byName["client_review_1_project_title"].State)
	assert.Equal(t, "Chatbot build", byName["client_review_1_project_title"].Value)
	assert.Equal(t, Null, byName["client_review_3_budget"].State)
	assert.Nil(t, byName["client_review_3_budget"].Value)
	assert.Equal(t, Absent, byName["client_rating"].State)
	assert.Len(t, order, 54+MaxReviewSlots*8)
}

func TestComplete(t *testing.T) {
	r := &JobRecord{JobID: Some("1"), Title: Some("t")}
	assert.True(t, Complete(r), "absent attributes do not count as null")

	r.ClientRating = None[string]()
	assert.False(t, Complete(r))
	assert.Equal(t, []string{"client_rating"}, r.NullColumns())

	assert.False(t, Complete(nil))
}

func TestMergeFirstPresentWins(t *testing.T) {
	dst := &JobRecord{
		Title:           Some("from state"),
		Description:     None[string](),
		PaymentVerified: Some(false),
	}
	src := &JobRecord{
		Title:           Some("from markup"),
		Description:     Some("markup description"),
		PaymentVerified: Some(true),
		Category:        Some("AI Chatbot"),
		ClientRating:    None[string](),
	}
	src.Reviews[1] = EmptyReviewSlot()
	src.Reviews[1].Text = Some("great work")

	Merge(dst, src)

	assert.Equal(t, "from state", dst.Title.OrZero())
	assert.Equal(t, "markup description", dst.Description.OrZero())
	assert.False(t, dst.PaymentVerified.OrZero())
	assert.Equal(t, "AI Chatbot", dst.Category.OrZero())
	assert.Equal(t, Null, dst.ClientRating.State())
	assert.Equal(t, "great work", dst.Reviews[1].Text.OrZero())
	assert.Equal(t, Null, dst.Reviews[1].Budget.State())
	assert.Equal(t, Absent, dst.Reviews[0].Budget.State())
}

func TestMergeKeepsNullWhenBothNull(t *testing.T) {
	dst := &JobRecord{Duration: None[string]()}
	Merge(dst, &JobRecord{Duration: None[string]()})
	assert.Equal(t, Null, dst.Duration.State())
}

func TestOpt(t *testing.T) {
	var zero Opt[int]
	assert.Equal(t, Absent, zero.State())
	assert.True(t, zero.Missing())

	v, ok := Some(4).Get()
	require.True(t, ok)
	assert.Equal(t, 4, v)

	n := 7
	assert.Equal(t, 7, FromPtr(&n).OrZero())
	assert.Equal(t, Null, FromPtr[int](nil).State())
	assert.Equal(t, "null", None[string]().String())
	assert.Equal(t, "4", Some(4).String())
}
