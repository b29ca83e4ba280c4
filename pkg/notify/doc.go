// Package notify renders previews of the notification events produced by a
// transition. Nothing is delivered: the previews exist so operators can see
// what each channel would have sent.
package notify
