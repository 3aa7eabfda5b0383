// Package reconcile merges the local recipe shelf with the authoritative
// recipe list into one view.
//
// Local records win: a recipe present in both sources appears once, with
// the local copy's title, favourite flag and ownership flag. Remote-only
// recipes are appended unfavourited and not user-owned. Every record's
// ingredients are canonicalized, and favourites are stably moved to the
// front.
//
// An unreachable remote degrades the view to local data; it is reported
// through View.RemoteErr, not as a failure.
package reconcile
