package domain

// RoomName identifies one media session. Reported as the event "group".
type RoomName string
