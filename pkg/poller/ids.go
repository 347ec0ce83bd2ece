package poller

import "github.com/google/uuid"

func newTaskUUID() uuid.UUID { return uuid.New() }
