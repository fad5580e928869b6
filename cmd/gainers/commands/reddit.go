package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/gainers/internal/social"
	"github.com/wonny/gainers/pkg/httputil"
)

// redditCmd represents the reddit command
var redditCmd = &cobra.Command{
	Use:   "reddit",
	Short: "Collect Reddit posts and comments to CSV",
	Long: `Fetches subreddit listings and top comments through the Reddit
OAuth API and writes posts.csv and comments.csv to the output directory.

Requires REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, REDDIT_USERNAME,
REDDIT_PASSWORD and REDDIT_USER_AGENT in the environment.

Example:
  go run ./cmd/gainers reddit
  go run ./cmd/gainers reddit --subreddits stocks investing --mode top`,
	RunE: runReddit,
}

var (
	redditSubreddits      []string
	redditMode            string
	redditPostsPerSub     int
	redditCommentsPerPost int
	redditSubsetSize      int
)

func init() {
	rootCmd.AddCommand(redditCmd)

	redditCmd.Flags().StringSliceVar(&redditSubreddits, "subreddits", social.DefaultSubreddits, "subreddit names (without r/)")
	redditCmd.Flags().StringVar(&redditMode, "mode", "hot", "listing to use (hot|top)")
	redditCmd.Flags().IntVar(&redditPostsPerSub, "posts-per-subreddit", 20, "posts to fetch per subreddit")
	redditCmd.Flags().IntVar(&redditCommentsPerPost, "comments-per-post", 5, "comments to fetch per selected post")
	redditCmd.Flags().IntVar(&redditSubsetSize, "subset-size", 10, "highest-scored posts to fetch comments for (0 = all)")
}

func runReddit(cmd *cobra.Command, args []string) error {
	cfg, _, log, err := loadEnvironment()
	if err != nil {
		return err
	}

	if !cfg.RedditEnabled() {
		return fmt.Errorf("reddit credentials are not configured")
	}

	ctx := cmd.Context()

	httpClient := httputil.New(cfg, log)
	collector := social.NewCollector(httpClient, cfg.Reddit, log)

	if err := collector.Authenticate(ctx); err != nil {
		return fmt.Errorf("reddit authentication: %w", err)
	}

	var posts []social.Post
	for _, sub := range redditSubreddits {
		fetched, err := collector.FetchPosts(ctx, sub, redditMode, redditPostsPerSub)
		if err != nil {
			log.WithField("subreddit", sub).WithError(err).Warn("Skipping subreddit")
			continue
		}
		posts = append(posts, fetched...)
	}
	if len(posts) == 0 {
		return fmt.Errorf("no posts collected")
	}

	comments, err := collector.FetchTopComments(ctx, posts, redditCommentsPerPost, redditSubsetSize)
	if err != nil {
		return fmt.Errorf("fetch comments: %w", err)
	}

	if err := social.WritePosts(cfg.OutputDir, posts); err != nil {
		return fmt.Errorf("write posts: %w", err)
	}
	if err := social.WriteComments(cfg.OutputDir, comments); err != nil {
		return fmt.Errorf("write comments: %w", err)
	}

	fmt.Printf("Collected %d posts and %d comments into %s\n", len(posts), len(comments), cfg.OutputDir)
	return nil
}
