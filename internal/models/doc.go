// Package models defines the domain entities of the artist dashboard.
//
// Entities:
//   - [Artist] : Registered content owner keyed by email, with OTP challenge state and follower/like sets
//   - [Song] : Uploaded track joined to its artist by display name
//   - [Album] : Ordered list of loose track references ([Album.TracksID])
//   - [Category], [Genre] : Read-only taxonomy reference data
//
// Writes go through input types ([NewArtist], [SongUpload], [AlbumUpload]) and partial updates
// ([ProfilePatch], [SongPatch], [AlbumPatch]) whose nil fields mean "leave untouched".
package models
