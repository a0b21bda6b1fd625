// Package assetsync provides a public API for running asset sync jobs from
// other programs.
//
// A job fetches a numbered catalog of files (for example 114 recitations per
// reader) from HTTP endpoints into a git working tree and, when anything
// changed, commits and pushes the result.
//
// Example usage:
//
//	syncer, err := assetsync.NewFromJobConfig("/path/to/repo", "audio", map[string]any{
//	    "collections": []any{
//	        map[string]any{
//	            "category":  "audio",
//	            "dir":       "audio",
//	            "extension": "mp3",
//	            "count":     114,
//	            "sources": []any{
//	                map[string]any{"name": "hazza", "url": "https://example.com/hazza/{num}.mp3"},
//	            },
//	        },
//	    },
//	    "lfs": map[string]any{"patterns": []string{"*.mp3"}},
//	    "publish": map[string]any{"repository": "owner/assets"},
//	}, assetsync.StaticToken(os.Getenv("GITHUB_TOKEN")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = syncer.Execute(ctx)
package assetsync
