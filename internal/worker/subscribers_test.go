package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingSubscriber struct{ calls int }

func (c *countingSubscriber) RegisterHandlers() { c.calls++ }

func TestStartSubscribersSkipsNil(t *testing.T) {
	a, b := &countingSubscriber{}, &countingSubscriber{}
	StartSubscribers(a, nil, b)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}
