// Package eventstudy fits market models and computes abnormal returns
// around a dated shock.
//
// Each event is an EventSpec: estimation and event windows expressed
// as inclusive trading-day offsets, anchored to the calendar by
// aligning the requested date forward to the next trading day. The
// market model alpha + beta*rm is fit by OLS over the estimation
// window; abnormal returns in the event window are actual minus
// expected, and CAR(k) cumulates them over offsets 0..k. A missing
// abnormal return anywhere inside a horizon makes that horizon's CAR
// missing rather than a shorter sum.
//
// Study.Run processes the whole universe for one event. Bad geometry
// or a calendar the windows do not fit aborts the run; everything per
// ticker (thin estimation coverage, too few paired observations, a
// flat benchmark) becomes an exclusion in Result.Failures.
package eventstudy
