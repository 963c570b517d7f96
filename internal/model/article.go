package model

import (
    "database/sql"
    "time"
)

// Article is a community post.  Associations are plain foreign-key ids;
// related rows are fetched through their repositories.
type Article struct {
    ID        uint64
    MemberID  uint64
    Title     string
    Content   string
    IsDeleted bool
    CreatedAt time.Time
    UpdatedAt time.Time
}

// Comment belongs to one article and one member.
type Comment struct {
    ID        uint64
    MemberID  uint64
    ArticleID uint64
    Content   string
    LikeCount uint64
    IsDeleted bool
    CreatedAt time.Time
    UpdatedAt time.Time
}

// Like records a member liking an article, or a comment of that article
// when CommentID is set.  There is no uniqueness rule on likes.
type Like struct {
    ID        uint64
    MemberID  uint64
    ArticleID uint64
    CommentID sql.NullInt64
    CreatedAt time.Time
}
