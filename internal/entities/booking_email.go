package entities

// Email actions, mirrored in the notification subject line.
const (
	EmailActionCreated   = "created"
	EmailActionUpdated   = "updated"
	EmailActionCancelled = "cancelled"
)

type BookingEmailData struct {
	Recipient          string
	UserName           string
	ResourceName       string
	Location           string
	BookingID          string
	StartTimeFormatted string
	EndTimeFormatted   string
	Action             string
	ActionText         string
	CurrentYear        int
}
