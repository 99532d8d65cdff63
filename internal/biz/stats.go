package biz

import "context"

// StatsUsecase aggregates the dashboard counters.
type StatsUsecase struct {
	posts PostRepo
	users UserRepo
	media MediaRepo
}

func NewStatsUsecase(posts PostRepo, users UserRepo, media MediaRepo) *StatsUsecase {
	return &StatsUsecase{posts: posts, users: users, media: media}
}

func (uc *StatsUsecase) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	if s.Posts, err = uc.posts.Count(ctx); err != nil {
		return s, err
	}
	if s.Users, err = uc.users.Count(ctx); err != nil {
		return s, err
	}
	if s.Media, err = uc.media.Count(ctx); err != nil {
		return s, err
	}
	return s, nil
}
