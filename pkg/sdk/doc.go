// Package finder is an embedded Go client for facility search over a
// PostGIS table. It runs the same connection pool, query templates and
// search orchestration as the facilityfinder HTTP service, in-process.
//
//	client, _ := finder.New(ctx,
//	    finder.WithPostgres("postgres://app@localhost:5432/facilities"),
//	    finder.WithPoolSize(1, 10),
//	)
//	defer client.Close()
//
//	// Radius search, ranked by similarity when a keyword is given.
//	hits, _ := client.SearchNearby(ctx, finder.NearbyQuery{
//	    Latitude: 35.68, Longitude: 139.76, RadiusMeters: 3000,
//	    Keyword: "dental", MaxResults: finder.Limit(10),
//	})
//
//	// Keyword search over the whole table.
//	hits, _ = client.SearchByKeyword(ctx, finder.KeywordQuery{Keyword: "pediatrics"})
package finder
