package graphql

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/scrob-fm/scrob/internal/auth"
	"github.com/scrob-fm/scrob/internal/metrics"
	"github.com/scrob-fm/scrob/internal/middleware"
	"github.com/scrob-fm/scrob/internal/models"
	"github.com/scrob-fm/scrob/internal/repo"
)

// Deps are the collaborators the schema resolves against. Both API
// surfaces share the same session service; this one just speaks GraphQL.
type Deps struct {
	Sessions  *auth.Service
	Scrobbles *repo.ScrobbleRepo
	Tokens    *repo.TokenRepo
}

const maxBatch = 50

var errAuthRequired = errors.New("Authentication required")

// requireUser pulls the authenticated user the HTTP middleware resolved.
// GraphQL collapses every failure into its single error channel, so this
// is just an error, never a status code.
func requireUser(p graphql.ResolveParams) (*models.User, error) {
	user, ok := middleware.UserFrom(p.Context)
	if !ok {
		return nil, errAuthRequired
	}
	return user, nil
}

// resolveErr maps a service or repo failure onto the error channel.
// Validation, conflict, and credential messages pass through verbatim;
// storage and hashing faults are logged in full and replaced with an
// opaque message, same as the REST surface.
func resolveErr(err error) error {
	switch {
	case auth.IsValidation(err),
		errors.Is(err, auth.ErrConflict),
		errors.Is(err, auth.ErrInvalidCredentials):
		return err
	default:
		slog.Error("graphql resolver error", "error", err)
		return errors.New("internal server error")
	}
}

// authResult classifies a signup/login failure for the attempts metric,
// using the same buckets as the REST handlers.
func authResult(err error) string {
	switch {
	case errors.Is(err, auth.ErrConflict):
		return "conflict"
	case auth.IsValidation(err), errors.Is(err, auth.ErrInvalidCredentials):
		return "invalid"
	default:
		return "error"
	}
}

// NewSchema builds the executable schema. Field names are camelCase; the
// default resolver matches them onto the model structs.
func NewSchema(d Deps) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"username":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"isAdmin":   &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"isPrivate": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	scrobType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Scrob",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"artist":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"track":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"album":     &graphql.Field{Type: graphql.String},
			"duration":  &graphql.Field{Type: graphql.Int},
			"timestamp": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	topArtistType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TopArtist",
		Fields: graphql.Fields{
			"name":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"count": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	topTrackType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TopTrack",
		Fields: graphql.Fields{
			"artist": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"track":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"count":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	apiTokenType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ApiToken",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"token":      &graphql.Field{Type: graphql.String},
			"label":      &graphql.Field{Type: graphql.String},
			"createdAt":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"lastUsedAt": &graphql.Field{Type: graphql.Int},
			"revoked":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"user":  &graphql.Field{Type: graphql.NewNonNull(userType)},
		},
	})

	scrobInputType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ScrobInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"artist":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"track":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"timestamp": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"album":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"duration":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
		},
	})

	nowPlayingInputType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "NowPlayingInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"artist": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"track":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, _ := middleware.UserFrom(p.Context)
					if user == nil {
						return nil, nil
					}
					return user, nil
				},
			},
			"recentScrobs": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(scrobType)),
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
					"before": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := requireUser(p)
					if err != nil {
						return nil, err
					}
					before := int64(math.MaxInt64)
					if v, ok := p.Args["before"].(int); ok {
						before = int64(v)
					}
					scrobs, err := d.Scrobbles.Recent(p.Context, user.ID, before, clampLimit(p.Args["limit"]))
					if err != nil {
						return nil, resolveErr(err)
					}
					return scrobs, nil
				},
			},
			"topArtists": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(topArtistType)),
				Args: rangeArgs(),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := requireUser(p)
					if err != nil {
						return nil, err
					}
					from, to := rangeBounds(p.Args)
					artists, err := d.Scrobbles.TopArtists(p.Context, user.ID, from, to, clampLimit(p.Args["limit"]))
					if err != nil {
						return nil, resolveErr(err)
					}
					return artists, nil
				},
			},
			"topTracks": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(topTrackType)),
				Args: rangeArgs(),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := requireUser(p)
					if err != nil {
						return nil, err
					}
					from, to := rangeBounds(p.Args)
					tracks, err := d.Scrobbles.TopTracks(p.Context, user.ID, from, to, clampLimit(p.Args["limit"]))
					if err != nil {
						return nil, resolveErr(err)
					}
					return tracks, nil
				},
			},
			"apiTokens": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(apiTokenType)),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := requireUser(p)
					if err != nil {
						return nil, err
					}
					tokens, err := d.Tokens.ListByUser(p.Context, user.ID)
					if err != nil {
						return nil, resolveErr(err)
					}
					return tokens, nil
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"login": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					result, err := d.Sessions.Login(p.Context,
						p.Args["username"].(string), p.Args["password"].(string))
					if err != nil {
						metrics.RecordAuthAttempt("login", authResult(err))
						return nil, resolveErr(err)
					}
					metrics.RecordAuthAttempt("login", "ok")
					return map[string]interface{}{"token": result.Token, "user": result.User}, nil
				},
			},
			"signup": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					result, err := d.Sessions.Signup(p.Context,
						p.Args["username"].(string), p.Args["password"].(string))
					if err != nil {
						metrics.RecordAuthAttempt("signup", authResult(err))
						return nil, resolveErr(err)
					}
					metrics.RecordAuthAttempt("signup", "ok")
					return map[string]interface{}{"token": result.Token, "user": result.User}, nil
				},
			},
			"scrob": &graphql.Field{
				Type: graphql.NewNonNull(scrobType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(scrobInputType)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := requireUser(p)
					if err != nil {
						return nil, err
					}
					s, err := insertScrob(p, d, user.ID, p.Args["input"].(map[string]interface{}))
					if err != nil {
						return nil, err
					}
					return s, nil
				},
			},
			"scrobBatch": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(scrobType)),
				Args: graphql.FieldConfigArgument{
					"inputs": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(scrobInputType)))},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := requireUser(p)
					if err != nil {
						return nil, err
					}
					inputs := p.Args["inputs"].([]interface{})
					if len(inputs) > maxBatch {
						return nil, errors.New("Maximum 50 scrobbles per batch")
					}
					scrobs := make([]*models.Scrobble, 0, len(inputs))
					for _, in := range inputs {
						s, err := insertScrob(p, d, user.ID, in.(map[string]interface{}))
						if err != nil {
							return nil, err
						}
						scrobs = append(scrobs, s)
					}
					return scrobs, nil
				},
			},
			"nowPlaying": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(nowPlayingInputType)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if _, err := requireUser(p); err != nil {
						return nil, err
					}
					// Reported, not stored.
					return true, nil
				},
			},
			"createApiToken": &graphql.Field{
				Type: graphql.NewNonNull(apiTokenType),
				Args: graphql.FieldConfigArgument{
					"label": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := requireUser(p)
					if err != nil {
						return nil, err
					}
					var label *string
					if v, ok := p.Args["label"].(string); ok {
						label = &v
					}
					token, err := d.Sessions.IssueToken(p.Context, user.ID, label)
					if err != nil {
						return nil, resolveErr(err)
					}
					return token, nil
				},
			},
			"revokeApiToken": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := requireUser(p)
					if err != nil {
						return nil, err
					}
					revoked, err := d.Sessions.RevokeToken(p.Context, user.ID, int64(p.Args["id"].(int)))
					if err != nil {
						return nil, resolveErr(err)
					}
					return revoked, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

func insertScrob(p graphql.ResolveParams, d Deps, userID int64, in map[string]interface{}) (*models.Scrobble, error) {
	var album *string
	if v, ok := in["album"].(string); ok {
		album = &v
	}
	var duration *int64
	if v, ok := in["duration"].(int); ok {
		dur := int64(v)
		duration = &dur
	}
	s, err := d.Scrobbles.Insert(p.Context, userID,
		in["artist"].(string), in["track"].(string),
		album, duration, int64(in["timestamp"].(int)), time.Now().Unix())
	if err != nil {
		return nil, resolveErr(err)
	}
	metrics.ScrobblesIngested.Inc()
	return s, nil
}

func rangeArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
		"from":  &graphql.ArgumentConfig{Type: graphql.Int},
		"to":    &graphql.ArgumentConfig{Type: graphql.Int},
	}
}

func rangeBounds(args map[string]interface{}) (int64, int64) {
	from := int64(0)
	to := int64(math.MaxInt64)
	if v, ok := args["from"].(int); ok {
		from = int64(v)
	}
	if v, ok := args["to"].(int); ok {
		to = int64(v)
	}
	return from, to
}

func clampLimit(arg interface{}) int64 {
	limit := int64(20)
	if v, ok := arg.(int); ok && v > 0 {
		limit = int64(v)
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}
